// Пакет fault — виды ошибок DICRI Console.
// Каждый слой (workflow, mirror, action, identity) сообщает вид ошибки,
// по которому API-слой выбирает HTTP-статус, а вызывающий — текст уведомления.
package fault

import (
	"errors"
	"fmt"
)

// Kind — машиночитаемый вид ошибки.
type Kind string

const (
	// KindUnauthenticated — нет текущего пользователя
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	// KindAuth — неверные учётные данные (только для вызова login)
	KindAuth Kind = "AUTH_FAILED"
	// KindPermissionDenied — не пройдена проверка роли или владения
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	// KindInvalidState — переход из неподходящего состояния
	KindInvalidState Kind = "INVALID_STATE"
	// KindValidation — не пройдена проверка данных запроса
	KindValidation Kind = "VALIDATION_FAILED"
	// KindNotFound — устаревшая локальная ссылка
	KindNotFound Kind = "NOT_FOUND"
	// KindRemote — ошибка транспорта или сервера
	KindRemote Kind = "REMOTE_FAILURE"
)

// Kinded — ошибка, сообщающая свой вид.
type Kinded interface {
	error
	FaultKind() Kind
}

// Error — ошибка с видом и человекочитаемым сообщением.
type Error struct {
	Kind    Kind
	Message string
	// Fields — ошибки по полям формы (для KindValidation)
	Fields map[string]string
	Err    error
}

// New создаёт ошибку указанного вида.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf создаёт ошибку с форматированным сообщением.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap создаёт ошибку указанного вида, сохраняя причину.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap возвращает причину.
func (e *Error) Unwrap() error {
	return e.Err
}

// FaultKind реализует Kinded.
func (e *Error) FaultKind() Kind {
	return e.Kind
}

// KindOf возвращает вид ошибки или пустую строку, если err не несёт вида.
func KindOf(err error) Kind {
	var k Kinded
	if errors.As(err, &k) {
		return k.FaultKind()
	}
	return ""
}

// Is проверяет, что err несёт вид kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf возвращает человекочитаемое сообщение ошибки.
// Для ошибок без вида возвращает fallback.
func MessageOf(err error, fallback string) string {
	var fe *Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	var k Kinded
	if errors.As(err, &k) {
		return k.Error()
	}
	return fallback
}
