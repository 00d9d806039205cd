package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOpenAPISpec = `
openapi: 3.0.3
info:
  title: items
  version: "1.0"
paths:
  /items:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                name:
                  type: string
                is_active:
                  type: boolean
      responses:
        "201":
          description: created
    get:
      parameters:
        - name: per_page
          in: query
          schema:
            type: string
      responses:
        "200":
          description: ok
`

func newValidatedRouter(t *testing.T) *gin.Engine {
	t.Helper()

	options := DefaultValidationOptions()
	options.PathPrefix = "/api"
	validator, err := NewOpenAPIValidator([]byte(testOpenAPISpec), options)
	require.NoError(t, err)

	router := gin.New()
	router.Use(validator.Middleware())
	router.POST("/api/items", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusCreated, string(body))
	})
	router.GET("/api/items", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/openapi.json", validator.SpecHandler())
	return router
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOpenAPIValidator_ValidRequestKeepsBody(t *testing.T) {
	router := newValidatedRouter(t)

	w := serve(router, http.MethodPost, "/api/items", `{"name":"Movie"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"name":"Movie"}`, w.Body.String())
}

func TestOpenAPIValidator_RejectsSchemaViolation(t *testing.T) {
	router := newValidatedRouter(t)

	w := serve(router, http.MethodPost, "/api/items", `{"name":5,"is_active":"yes"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, resp.Errors)
}

func TestOpenAPIValidator_UnknownRoutesPassThrough(t *testing.T) {
	router := newValidatedRouter(t)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/items?per_page=abc", "").Code)
}

func TestOpenAPIValidator_SpecHandler(t *testing.T) {
	router := newValidatedRouter(t)

	w := serve(router, http.MethodGet, "/openapi.json", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"openapi":"3.0.3"`)
}

func TestNewOpenAPIValidator_InvalidSpec(t *testing.T) {
	_, err := NewOpenAPIValidator([]byte("not: [valid"), DefaultValidationOptions())
	assert.Error(t, err)
}
