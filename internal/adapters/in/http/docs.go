package http

import (
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/swaggo/swag"
)

var registerDocOnce sync.Once

// openAPIDocument serves the embedded OpenAPI document to the Swagger UI.
type openAPIDocument struct {
	json string
}

func (d openAPIDocument) ReadDoc() string {
	return d.json
}

// registerDocs mounts the Swagger UI under /swagger/ with the document at
// /swagger/doc.json.
func registerDocs(e *echo.Echo, spec *openapi3.T) error {
	raw, err := spec.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode OpenAPI spec: %w", err)
	}

	registerDocOnce.Do(func() {
		swag.Register(swag.Name, openAPIDocument{json: string(raw)})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	return nil
}
