package errors

import (
	"fmt"
	"net/http"
)

// HttpError - основная ошибка приложения. Code - HTTP статус для ответа,
// Reason - стабильный машинный код, по которому клиент различает виды ошибок.
type HttpError struct {
	Code    int
	Reason  string
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, context map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Reason: reasonForCode(code), Message: message, Err: err, Context: context}
}

func reasonForCode(code int) string {
	switch code {
	case http.StatusNotFound:
		return ReasonNotFound
	case http.StatusForbidden:
		return ReasonForbidden
	case http.StatusBadRequest:
		return ReasonInvalidInput
	case http.StatusConflict:
		return ReasonInvalidState
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	}
	return "INTERNAL"
}

// Машинные коды. Каждый вид ошибки рабочего процесса должен быть различим
// вызывающей стороной, поэтому коды не схлопываются в общий INVALID_STATE.
const (
	ReasonNotFound            = "NOT_FOUND"
	ReasonForbidden           = "FORBIDDEN"
	ReasonInvalidInput        = "INVALID_INPUT"
	ReasonInvalidState        = "INVALID_STATE"
	ReasonNoVisitScheduled    = "NO_VISIT_SCHEDULED"
	ReasonCustomerNotApproved = "CUSTOMER_NOT_APPROVED"
	ReasonVisitNotCompleted   = "VISIT_NOT_COMPLETED"
	ReasonDocumentRequired    = "DOCUMENT_REQUIRED"
	ReasonNotEditable         = "NOT_EDITABLE"
)

var (
	// Общие
	ErrNotFound     = &HttpError{Code: http.StatusNotFound, Reason: ReasonNotFound, Message: "Запись не найдена"}
	ErrForbidden    = &HttpError{Code: http.StatusForbidden, Reason: ReasonForbidden, Message: "Доступ запрещён"}
	ErrInvalidInput = &HttpError{Code: http.StatusBadRequest, Reason: ReasonInvalidInput, Message: "Неверный запрос"}
	ErrInvalidState = &HttpError{Code: http.StatusConflict, Reason: ReasonInvalidState, Message: "Действие недопустимо в текущем статусе"}
	ErrConflict     = &HttpError{Code: http.StatusConflict, Reason: ReasonInvalidState, Message: "Запись уже существует"}

	// Предусловия выдачи коммерческого предложения (см. services.QuoteGuard).
	ErrNoVisitScheduled = &HttpError{Code: http.StatusConflict, Reason: ReasonNoVisitScheduled,
		Message: "Для этой заявки ещё не назначен выезд на объект (сначала назначьте выезд)"}
	ErrCustomerNotApproved = &HttpError{Code: http.StatusConflict, Reason: ReasonCustomerNotApproved,
		Message: "Клиент ещё не подтвердил время выезда (нужно подтверждение APPROVED)"}
	ErrVisitNotCompleted = &HttpError{Code: http.StatusConflict, Reason: ReasonVisitNotCompleted,
		Message: "Осмотр объекта ещё не завершён (статус выезда должен быть DONE)"}

	// Коммерческие предложения
	ErrDocumentRequired = &HttpError{Code: http.StatusBadRequest, Reason: ReasonDocumentRequired,
		Message: "Файл предложения (PDF) обязателен"}
	ErrQuotationNotEditable = &HttpError{Code: http.StatusConflict, Reason: ReasonNotEditable,
		Message: "Предложение уже принято или отклонено и не может быть изменено"}

	// JWT и токены
	ErrInvalidSigningMethod = &HttpError{Code: http.StatusUnauthorized, Reason: "UNAUTHORIZED", Message: "Неверный метод подписи токена"}
	ErrInvalidToken         = &HttpError{Code: http.StatusUnauthorized, Reason: "UNAUTHORIZED", Message: "Недопустимый токен"}
	ErrTokenExpired         = &HttpError{Code: http.StatusUnauthorized, Reason: "UNAUTHORIZED", Message: "Срок действия токена истёк"}
	ErrTokenIsNotRefresh    = &HttpError{Code: http.StatusUnauthorized, Reason: "UNAUTHORIZED", Message: "Токен не является refresh-токеном"}
	ErrTokenIsNotAccess     = &HttpError{Code: http.StatusUnauthorized, Reason: "UNAUTHORIZED", Message: "Refresh-токен нельзя использовать для доступа"}

	// Авторизация
	ErrEmptyAuthHeader    = &HttpError{Code: http.StatusUnauthorized, Reason: "UNAUTHORIZED", Message: "Заголовок авторизации отсутствует"}
	ErrInvalidAuthHeader  = &HttpError{Code: http.StatusUnauthorized, Reason: "UNAUTHORIZED", Message: "Неверный формат заголовка авторизации"}
	ErrInvalidCredentials = &HttpError{Code: http.StatusUnauthorized, Reason: "UNAUTHORIZED", Message: "Неверные учётные данные"}

	// Контекст
	ErrUserIDNotFoundInContext = &HttpError{Code: http.StatusUnauthorized, Reason: "UNAUTHORIZED", Message: "UserID не найден в контексте запроса"}
)

// InvalidInputError - ошибка валидации с произвольным текстом.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
