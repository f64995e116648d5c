// Пакет validate — проверка данных форм до обращения к удалённому API.
// Ошибки возвращаются как fault.KindValidation с ошибками по полям.
package validate

import (
	"strings"
	"time"

	"github.com/bigkaa/dicri-console/internal/domain/fault"
	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// MinFileNumberLength — минимальная длина номера дела.
const MinFileNumberLength = 3

// fieldErrors накапливает ошибки по полям.
type fieldErrors map[string]string

func (fe fieldErrors) require(field, value, message string) {
	if strings.TrimSpace(value) == "" {
		fe[field] = message
	}
}

func (fe fieldErrors) err(message string) error {
	if len(fe) == 0 {
		return nil
	}
	return &fault.Error{Kind: fault.KindValidation, Message: message, Fields: fe}
}

// Login проверяет учётные данные.
func Login(c model.Credentials) error {
	fe := fieldErrors{}
	fe.require("Username", c.Username, "имя пользователя обязательно")
	fe.require("Password", c.Password, "пароль обязателен")
	return fe.err("не заполнены учётные данные")
}

// FileNumber проверяет номер дела: обязателен, не короче MinFileNumberLength.
func FileNumber(fileNumber string) error {
	fe := fieldErrors{}
	checkFileNumber(fe, fileNumber)
	return fe.err("некорректный номер дела")
}

func checkFileNumber(fe fieldErrors, fileNumber string) {
	trimmed := strings.TrimSpace(fileNumber)
	switch {
	case trimmed == "":
		fe["FileNumber"] = "номер дела обязателен"
	case len([]rune(trimmed)) < MinFileNumberLength:
		fe["FileNumber"] = "номер дела короче 3 символов"
	}
}

// CreateExpediente проверяет данные нового дела.
func CreateExpediente(in model.CreateExpedienteInput) error {
	fe := fieldErrors{}
	checkFileNumber(fe, in.FileNumber)
	fe.require("Description", in.Description, "описание обязательно")
	if in.TechnicianID <= 0 {
		fe["IdTecnicoRegistro"] = "технический специалист обязателен"
	}
	return fe.err("некорректные данные дела")
}

// UpdateExpediente проверяет изменение дела.
func UpdateExpediente(in model.UpdateExpedienteInput) error {
	fe := fieldErrors{}
	fe.require("Description", in.Description, "описание обязательно")
	return fe.err("некорректные данные дела")
}

// CreateIndicio проверяет данные нового индиция.
func CreateIndicio(in model.CreateIndicioInput) error {
	fe := fieldErrors{}
	if in.ExpedienteID <= 0 {
		fe["IdExpediente"] = "дело обязательно"
	}
	fe.require("Description", in.Description, "описание обязательно")
	fe.require("Location", in.Location, "место хранения обязательно")
	return fe.err("некорректные данные индиция")
}

// UpdateIndicio проверяет изменение индиция.
func UpdateIndicio(in model.UpdateIndicioInput) error {
	fe := fieldErrors{}
	fe.require("Description", in.Description, "описание обязательно")
	fe.require("Location", in.Location, "место хранения обязательно")
	return fe.err("некорректные данные индиция")
}

// Remarks проверяет замечания при отклонении.
func Remarks(remarks string) error {
	fe := fieldErrors{}
	fe.require("ObservacionesExpediente", remarks, "необходимо указать причину отклонения")
	return fe.err("необходимо указать причину отклонения")
}

// DateLayout — формат дат в фильтрах отчётов.
const DateLayout = "2006-01-02"

// ReportFilters проверяет фильтры отчётов: даты в формате DateLayout,
// начало не позже конца, известное состояние.
func ReportFilters(f model.ReportFilters) error {
	fe := fieldErrors{}
	from, fromOK := parseDate(fe, "fechaInicio", f.From)
	to, toOK := parseDate(fe, "fechaFin", f.To)
	if fromOK && toOK && from.After(to) {
		fe["fechaFin"] = "дата окончания раньше даты начала"
	}
	if f.State != 0 && !f.State.Valid() {
		fe["estado"] = "неизвестное состояние"
	}
	return fe.err("некорректные фильтры отчёта")
}

func parseDate(fe fieldErrors, field, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		fe[field] = "дата должна быть в формате ГГГГ-ММ-ДД"
		return time.Time{}, false
	}
	return t, true
}
