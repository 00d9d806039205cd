package domain

import (
	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/framework/validation"
)

// Validator проверяет данные категории. Пустой результат = данные валидны.
type Validator interface {
	Validate(props CategoryProps) core.FieldErrors
}

// ValidatorFunc адаптер функции к Validator
type ValidatorFunc func(props CategoryProps) core.FieldErrors

// Validate вызывает f
func (f ValidatorFunc) Validate(props CategoryProps) core.FieldErrors {
	return f(props)
}

// CategoryValidator правила категории на go-playground/validator:
// name обязательно и не длиннее 255 символов, description необязательно.
type CategoryValidator struct {
	structs *validation.StructValidator
}

// NewCategoryValidator создает валидатор категорий
func NewCategoryValidator() *CategoryValidator {
	return &CategoryValidator{structs: validation.New()}
}

// Validate реализует Validator
func (v *CategoryValidator) Validate(props CategoryProps) core.FieldErrors {
	errs, err := v.structs.Fields(props)
	if err != nil {
		return core.FieldErrors{"category": {err.Error()}}
	}
	return errs
}
