// Package core предоставляет систему ошибок фреймворка.
package core

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Коды ошибок фреймворка
const (
	ErrNotFound         = "NOT_FOUND"
	ErrAlreadyExists    = "ALREADY_EXISTS"
	ErrInvalidConfig    = "INVALID_CONFIG"
	ErrValidationFailed = "VALIDATION_FAILED"
	ErrLoadEntityFailed = "LOAD_ENTITY_FAILED"
)

// Sentinel ошибки для проверки через errors.Is
var (
	ErrEntityNotFound = NewError(ErrNotFound, "entity not found")
	ErrEntityExists   = NewError(ErrAlreadyExists, "entity already exists")
	ErrValidation     = NewError(ErrValidationFailed, "entity validation failed")
	ErrLoadEntity     = NewError(ErrLoadEntityFailed, "entity could not be loaded")
)

// FrameworkError базовый тип ошибки фреймворка
type FrameworkError struct {
	Code       string
	Message    string
	Cause      error
	StackTrace string
}

// Error реализует интерфейс error
func (e *FrameworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap возвращает причину ошибки
func (e *FrameworkError) Unwrap() error {
	return e.Cause
}

// Is проверяет, соответствует ли ошибка коду
func (e *FrameworkError) Is(target error) bool {
	if t, ok := target.(*FrameworkError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext добавляет контекст к ошибке
func (e *FrameworkError) WithContext(context string) *FrameworkError {
	return &FrameworkError{
		Code:       e.Code,
		Message:    fmt.Sprintf("%s: %s", context, e.Message),
		Cause:      e.Cause,
		StackTrace: e.StackTrace,
	}
}

// NewError создает новую ошибку фреймворка
func NewError(code, message string) *FrameworkError {
	return &FrameworkError{
		Code:       code,
		Message:    message,
		StackTrace: captureStackTrace(),
	}
}

// Wrap оборачивает существующую ошибку
func Wrap(err error, code, message string) *FrameworkError {
	if err == nil {
		return nil
	}
	return &FrameworkError{
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: captureStackTrace(),
	}
}

// CodeOf возвращает код первой FrameworkError в цепочке или пустую строку
func CodeOf(err error) string {
	var fe *FrameworkError
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch {
	case errors.Is(err, ErrEntityNotFound):
		return ErrNotFound
	case errors.Is(err, ErrValidation):
		return ErrValidationFailed
	case errors.Is(err, ErrLoadEntity):
		return ErrLoadEntityFailed
	}
	return ""
}

// NotFoundError сущность с указанным ID отсутствует в хранилище.
// Всегда несет ID, по которому выполнялся поиск.
type NotFoundError struct {
	EntityName string
	ID         string
}

// NewNotFoundError создает ошибку NotFound
func NewNotFoundError(entityName, id string) *NotFoundError {
	return &NotFoundError{EntityName: entityName, ID: id}
}

func (e *NotFoundError) Error() string {
	name := e.EntityName
	if name == "" {
		name = "Entity"
	}
	return fmt.Sprintf("%s not found using ID %s", name, e.ID)
}

// Is позволяет errors.Is(err, ErrEntityNotFound)
func (e *NotFoundError) Is(target error) bool {
	return target == ErrEntityNotFound
}

// FieldErrors ошибки валидации: поле -> список сообщений
type FieldErrors map[string][]string

// Add добавляет сообщение к полю
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// String возвращает детерминированное представление (поля по алфавиту)
func (f FieldErrors) String() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(f[field], ", ")))
	}
	return strings.Join(parts, "; ")
}

// EntityValidationError сущность не прошла валидацию
type EntityValidationError struct {
	Errors FieldErrors
}

// NewEntityValidationError создает ошибку валидации
func NewEntityValidationError(errs FieldErrors) *EntityValidationError {
	return &EntityValidationError{Errors: errs}
}

func (e *EntityValidationError) Error() string {
	return fmt.Sprintf("entity validation error: %s", e.Errors)
}

func (e *EntityValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LoadEntityError сохраненная запись не может быть восстановлена в сущность
type LoadEntityError struct {
	Errors FieldErrors
}

func (e *LoadEntityError) Error() string {
	return fmt.Sprintf("entity could not be loaded: %s", e.Errors)
}

func (e *LoadEntityError) Is(target error) bool {
	return target == ErrLoadEntity
}

// captureStackTrace захватывает stack trace
func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	// Убираем первые несколько строк (сама функция captureStackTrace)
	lines := strings.Split(stack, "\n")
	if len(lines) > 4 {
		lines = lines[4:]
	}
	return strings.Join(lines, "\n")
}
