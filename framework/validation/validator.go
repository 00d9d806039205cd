// Package validation предоставляет валидацию структур на основе go-playground/validator
// с приведением ошибок к core.FieldErrors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/akriventsev/catalog/framework/core"
)

// StructValidator валидатор структур по тегам `validate`.
// Имена полей в ошибках берутся из тега `json`.
type StructValidator struct {
	validate *validator.Validate
}

// New создает новый StructValidator
func New() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &StructValidator{validate: v}
}

// Fields валидирует структуру и возвращает ошибки по полям.
// nil означает, что структура валидна. Ошибка возвращается только
// если s не является структурой.
func (v *StructValidator) Fields(s any) (core.FieldErrors, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, fmt.Errorf("failed to validate %T: %w", s, err)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}

	result := make(core.FieldErrors)
	for _, fe := range fieldErrs {
		result.Add(fieldPath(fe), Message(fe))
	}
	return result, nil
}

// Struct валидирует структуру и возвращает *core.EntityValidationError при ошибке
func (v *StructValidator) Struct(s any) error {
	fields, err := v.Fields(s)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return core.NewEntityValidationError(fields)
	}
	return nil
}

// Engine возвращает validator.Validate для регистрации собственных правил
func (v *StructValidator) Engine() *validator.Validate {
	return v.validate
}

// Message формирует сообщение об ошибке поля
func Message(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required", "required_with", "required_without":
		return fmt.Sprintf("%s should not be empty", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be shorter than or equal to %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not be greater than %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be longer than or equal to %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must not be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of the following values: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a UUID", field)
	case "email":
		return fmt.Sprintf("%s must be an email", field)
	}
	return fmt.Sprintf("%s failed on the '%s' rule", field, fe.Tag())
}

// fieldPath путь поля без имени корневой структуры: "Category.name" -> "name"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}
