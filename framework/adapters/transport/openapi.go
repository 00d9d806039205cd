// Copyright 2024 Potter Framework Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/gin-gonic/gin"

	"github.com/akriventsev/catalog/framework/core"
)

// ValidationOptions опции для валидации OpenAPI
type ValidationOptions struct {
	// PathPrefix отрезается от пути перед поиском операции (обычно BasePath)
	PathPrefix string
	MultiError bool
}

// DefaultValidationOptions возвращает опции валидации по умолчанию
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{MultiError: true}
}

// OpenAPIValidator валидатор HTTP запросов по OpenAPI спецификации
type OpenAPIValidator struct {
	spec    *openapi3.T
	router  routers.Router
	options ValidationOptions
}

// NewOpenAPIValidator загружает спецификацию (YAML или JSON) из памяти
func NewOpenAPIValidator(data []byte, options ValidationOptions) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()

	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	if err := spec.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}

	router, err := legacy.NewRouter(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	return &OpenAPIValidator{
		spec:    spec,
		router:  router,
		options: options,
	}, nil
}

// Middleware возвращает Gin middleware для валидации запросов.
// Маршруты, которых нет в спецификации, пропускаются без проверки.
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := v.ValidateRequest(c.Request); err != nil {
			if errors.Is(err, routers.ErrPathNotFound) || errors.Is(err, routers.ErrMethodNotAllowed) {
				c.Next()
				return
			}

			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
				StatusCode: http.StatusBadRequest,
				Error:      http.StatusText(http.StatusBadRequest),
				Message:    "request does not match the API schema",
				Errors:     v.fieldErrors(err),
			})
			return
		}
		c.Next()
	}
}

// ValidateRequest валидирует HTTP запрос по OpenAPI спецификации.
// Тело запроса после проверки остается доступным для чтения.
func (v *OpenAPIValidator) ValidateRequest(req *http.Request) error {
	lookup := req
	if v.options.PathPrefix != "" {
		lookup = req.Clone(req.Context())
		lookup.URL.Path = "/" + strings.TrimPrefix(strings.TrimPrefix(req.URL.Path, v.options.PathPrefix), "/")
	}

	route, pathParams, err := v.router.FindRoute(lookup)
	if err != nil {
		var routeErr *routers.RouteError
		if errors.As(err, &routeErr) {
			switch routeErr.Reason {
			case routers.ErrPathNotFound.Error():
				return routers.ErrPathNotFound
			case routers.ErrMethodNotAllowed.Error():
				return routers.ErrMethodNotAllowed
			}
		}
		return fmt.Errorf("route not found: %w", err)
	}

	input := &openapi3filter.RequestValidationInput{
		Request:     lookup,
		PathParams:  pathParams,
		Route:       route,
		QueryParams: req.URL.Query(),
		Options: &openapi3filter.Options{
			MultiError: v.options.MultiError,
		},
	}

	err = openapi3filter.ValidateRequest(req.Context(), input)
	// ValidateRequestBody подменяет Body у lookup
	req.Body = lookup.Body
	return err
}

// fieldErrors раскладывает ошибки kin-openapi по полям
func (v *OpenAPIValidator) fieldErrors(err error) core.FieldErrors {
	errs := core.FieldErrors{}
	addOpenAPIError(errs, err)
	return errs
}

func addOpenAPIError(errs core.FieldErrors, err error) {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, item := range multi {
			addOpenAPIError(errs, item)
		}
		return
	}

	field := "request"
	message := err.Error()

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		message = reqErr.Reason
		switch {
		case reqErr.Parameter != nil:
			field = reqErr.Parameter.Name
		case reqErr.RequestBody != nil:
			field = "body"
		}
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if pointer := schemaErr.JSONPointer(); len(pointer) > 0 {
			field = strings.Join(pointer, ".")
		}
		message = schemaErr.Reason
	}

	if message == "" {
		message = err.Error()
	}
	errs.Add(field, message)
}

// Spec возвращает загруженную OpenAPI спецификацию
func (v *OpenAPIValidator) Spec() *openapi3.T {
	return v.spec
}

// SpecHandler отдает спецификацию в JSON
func (v *OpenAPIValidator) SpecHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, v.spec)
	}
}
