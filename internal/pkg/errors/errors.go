package errors

import (
	"errors"
	"strings"
)

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, неверный nonce).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у администратора нет нужного права.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (повторная регистрация, повторная отправка ответов).
	ErrConflict = errors.New("resource state conflict")
)

// ValidationError содержит список человекочитаемых сообщений об ошибках валидации.
// errors.Is(err, ErrValidation) возвращает true.
type ValidationError struct {
	Messages []string
}

// Error реализует интерфейс error
func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Messages, "; ")
}

// Unwrap позволяет сравнивать ошибку с ErrValidation
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Add добавляет сообщение
func (e *ValidationError) Add(msg string) {
	e.Messages = append(e.Messages, msg)
}

// OrNil возвращает nil, если сообщений нет
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Messages) == 0 {
		return nil
	}
	return e
}

// NewValidationError создаёт ошибку валидации с сообщениями
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// ValidationMessages извлекает сообщения из цепочки ошибок
func ValidationMessages(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Messages
	}
	return nil
}
