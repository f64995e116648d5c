// Пакет errors — ответы с ошибками консольного API.
// Единый формат: {"error": {"code": "...", "message": "...", "fields": {...}}}.
// Все HTTP-ответы с ошибками должны использовать WriteError или WriteFault.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/bigkaa/dicri-console/internal/domain/fault"
)

// Коды ошибок, не связанные с видами fault.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeInternalError = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	writeBody(w, statusCode, errorDetail{Code: code, Message: message})
}

// WriteFault записывает ошибку доменного слоя. Статус выбирается по виду,
// ошибка без вида отвечает 500.
func WriteFault(w http.ResponseWriter, err error) {
	kind := fault.KindOf(err)
	if kind == "" {
		InternalError(w, "внутренняя ошибка")
		return
	}

	detail := errorDetail{
		Code:    string(kind),
		Message: fault.MessageOf(err, string(kind)),
	}
	var fe *fault.Error
	if stderrors.As(err, &fe) && len(fe.Fields) > 0 {
		detail.Fields = fe.Fields
	}
	writeBody(w, StatusOf(kind), detail)
}

// StatusOf возвращает HTTP-статус для вида ошибки.
func StatusOf(kind fault.Kind) int {
	switch kind {
	case fault.KindUnauthenticated, fault.KindAuth:
		return http.StatusUnauthorized
	case fault.KindPermissionDenied:
		return http.StatusForbidden
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindInvalidState:
		return http.StatusConflict
	case fault.KindValidation:
		return http.StatusBadRequest
	case fault.KindRemote:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// --- Конструкторы для типичных ошибок ---

// BadRequest — 400 тело или параметры запроса не разобраны.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthenticated — 401 нет текущего пользователя.
func Unauthenticated(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, string(fault.KindUnauthenticated), message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, string(fault.KindPermissionDenied), message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}

func writeBody(w http.ResponseWriter, statusCode int, detail errorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: detail})
}
