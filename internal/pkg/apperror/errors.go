package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Коды отказов жизненного цикла предложения помощи.
	ErrCodePermission      ErrorCode = "PERMISSION_DENIED"
	ErrCodeInvalidState    ErrorCode = "INVALID_STATE"
	ErrCodePrecondition    ErrorCode = "PRECONDITION_FAILED"
	ErrCodeAlreadyResolved ErrorCode = "ALREADY_RESOLVED"
	ErrCodeStaleState      ErrorCode = "STALE_STATE"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodePermission:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidState, ErrCodeAlreadyResolved, ErrCodeStaleState:
		return http.StatusConflict
	case ErrCodePrecondition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool { return is(err, ErrCodeNotFound) }

func IsForbidden(err error) bool { return is(err, ErrCodeForbidden) }

func IsValidation(err error) bool { return is(err, ErrCodeValidation) }

// IsPermission: действие запрещено этому участнику на данном ребре.
func IsPermission(err error) bool { return is(err, ErrCodePermission) }

// IsInvalidState: переход нелегален из текущего состояния.
func IsInvalidState(err error) bool { return is(err, ErrCodeInvalidState) }

// IsPrecondition: состояние и участник валидны, но временное условие не выполнено.
func IsPrecondition(err error) bool { return is(err, ErrCodePrecondition) }

// IsAlreadyResolved: участник уже отправил свой отзыв или отчёт об инциденте.
func IsAlreadyResolved(err error) bool { return is(err, ErrCodeAlreadyResolved) }

// IsStaleState: конкурентное изменение, вызывающий должен перечитать предложение.
func IsStaleState(err error) bool { return is(err, ErrCodeStaleState) }

var (
	ErrHelpRequestNotFound = New(ErrCodeNotFound, "запрос о помощи не найден")
	ErrHelpOfferNotFound   = New(ErrCodeNotFound, "предложение помощи не найдено")
	ErrUserNotFound        = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden           = New(ErrCodeForbidden, "недостаточно прав")
	ErrStaleOffer          = New(ErrCodeStaleState, "предложение было изменено параллельно, обновите данные")
)
