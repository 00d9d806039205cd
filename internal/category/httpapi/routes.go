// Package httpapi HTTP маршруты категорий поверх REST адаптера.
package httpapi

import (
	_ "embed"
	"net/http"

	rest "github.com/akriventsev/catalog/framework/adapters/transport"
	"github.com/akriventsev/catalog/internal/category/application"
)

//go:embed openapi.yaml
var openAPISpec []byte

// SpecPath путь, по которому отдается OpenAPI документ
const SpecPath = "/openapi.json"

// OpenAPISpec OpenAPI документ API категорий (YAML)
func OpenAPISpec() []byte {
	return openAPISpec
}

// NewRequestValidator создает валидатор запросов по OpenAPI документу.
// basePath совпадает с BasePath REST адаптера.
func NewRequestValidator(basePath string) (*rest.OpenAPIValidator, error) {
	options := rest.DefaultValidationOptions()
	options.PathPrefix = basePath
	return rest.NewOpenAPIValidator(openAPISpec, options)
}

// RegisterRoutes регистрирует CRUD маршруты категорий
func RegisterRoutes(adapter *rest.RESTAdapter) {
	rest.RegisterCommand[application.CreateCategory](adapter, http.MethodPost, "/categories", http.StatusCreated)
	rest.RegisterQuery[application.ListCategories](adapter, http.MethodGet, "/categories")
	rest.RegisterQuery[application.GetCategory](adapter, http.MethodGet, "/categories/:id")
	rest.RegisterCommand[application.UpdateCategory](adapter, http.MethodPut, "/categories/:id", http.StatusOK)
	rest.RegisterCommand[application.DeleteCategory](adapter, http.MethodDelete, "/categories/:id", http.StatusNoContent)
}

// RegisterSpec отдает OpenAPI документ по SpecPath
func RegisterSpec(adapter *rest.RESTAdapter, validator *rest.OpenAPIValidator) {
	adapter.Router().GET(SpecPath, validator.SpecHandler())
}
