package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dafibh/washpos/washpos-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

const (
	swaggerDefinitionsPrefix = "#/definitions/"
	openAPISchemasPrefix     = "#/components/schemas/"
)

// OpenAPI3Spec represents an OpenAPI 3.0 document
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// OpenAPIHandler serves the generated swagger doc as OpenAPI 3.0
type OpenAPIHandler struct {
	servers []Server
}

// NewOpenAPIHandler creates a handler advertising the given base URLs
func NewOpenAPIHandler(serverURLs []string) *OpenAPIHandler {
	servers := make([]Server, 0, len(serverURLs))
	for _, url := range serverURLs {
		url = strings.TrimRight(strings.TrimSpace(url), "/")
		if url == "" {
			continue
		}
		servers = append(servers, Server{URL: url})
	}
	return &OpenAPIHandler{servers: servers}
}

// ServeSpec handles GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(c echo.Context) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read swagger doc")
		return NewInternalError(c, "Failed to read API docs")
	}

	spec, err := convertSwagger2([]byte(doc), h.servers)
	if err != nil {
		log.Error().Err(err).Msg("Failed to convert swagger doc")
		return NewInternalError(c, "Failed to convert API docs")
	}
	return c.JSON(http.StatusOK, spec)
}

// convertSwagger2 turns a swagger 2.0 document into OpenAPI 3.0: definitions become
// components/schemas, body parameters become request bodies and typed parameters get a schema
func convertSwagger2(doc []byte, servers []Server) (*OpenAPI3Spec, error) {
	var swagger2 map[string]interface{}
	if err := json.Unmarshal(doc, &swagger2); err != nil {
		return nil, fmt.Errorf("parse swagger doc: %w", err)
	}

	info, _ := swagger2["info"].(map[string]interface{})
	paths, _ := swagger2["paths"].(map[string]interface{})

	convertedPaths := make(map[string]interface{}, len(paths))
	for path, item := range paths {
		operations, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		converted := make(map[string]interface{}, len(operations))
		for method, op := range operations {
			if operation, ok := op.(map[string]interface{}); ok {
				converted[method] = convertOperation(operation)
			}
		}
		convertedPaths[path] = converted
	}

	components := make(map[string]interface{})
	if schemes, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = schemes
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = rewriteRefs(definitions)
	}

	if servers == nil {
		servers = []Server{}
	}
	return &OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    servers,
		Paths:      convertedPaths,
		Components: components,
	}, nil
}

func convertOperation(operation map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(operation))
	for key, value := range operation {
		switch key {
		case "parameters", "consumes", "produces":
		case "responses":
			result[key] = convertResponses(value)
		default:
			result[key] = rewriteRefs(value)
		}
	}

	params, _ := operation["parameters"].([]interface{})
	converted := make([]interface{}, 0, len(params))
	for _, p := range params {
		param, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		if param["in"] == "body" {
			result["requestBody"] = map[string]interface{}{
				"description": param["description"],
				"required":    param["required"] == true,
				"content": map[string]interface{}{
					echo.MIMEApplicationJSON: map[string]interface{}{"schema": rewriteRefs(param["schema"])},
				},
			}
			continue
		}
		converted = append(converted, convertParameter(param))
	}
	if len(converted) > 0 {
		result["parameters"] = converted
	}
	return result
}

// convertParameter moves type fields of a non-body parameter under schema
func convertParameter(param map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	schema := make(map[string]interface{})
	for key, value := range param {
		switch key {
		case "type", "format", "enum", "default", "minimum", "maximum", "items":
			schema[key] = rewriteRefs(value)
		default:
			result[key] = value
		}
	}
	if len(schema) > 0 {
		result["schema"] = schema
	}
	return result
}

// convertResponses wraps each response schema in a JSON media type
func convertResponses(value interface{}) interface{} {
	responses, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	result := make(map[string]interface{}, len(responses))
	for status, r := range responses {
		response, ok := r.(map[string]interface{})
		if !ok {
			result[status] = r
			continue
		}
		converted := map[string]interface{}{"description": response["description"]}
		if schema, ok := response["schema"]; ok {
			converted["content"] = map[string]interface{}{
				echo.MIMEApplicationJSON: map[string]interface{}{"schema": rewriteRefs(schema)},
			}
		}
		result[status] = converted
	}
	return result
}

// rewriteRefs points every $ref at components/schemas
func rewriteRefs(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, item := range v {
			if ref, ok := item.(string); ok && key == "$ref" {
				result[key] = strings.Replace(ref, swaggerDefinitionsPrefix, openAPISchemasPrefix, 1)
				continue
			}
			result[key] = rewriteRefs(item)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = rewriteRefs(item)
		}
		return result
	default:
		return value
	}
}
