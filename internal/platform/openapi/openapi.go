// Package openapi describes the routes registered on an echo server as an
// OpenAPI 3.0 document.
package openapi

import (
	"net/http"
	"sort"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
)

// Generator builds the document from the server's route table at request
// time, so routes added after construction are included.
type Generator struct {
	e       *echo.Echo
	title   string
	version string
	prefix  string
}

// NewGenerator documents every route of e whose path starts with prefix.
func NewGenerator(e *echo.Echo, title, version, prefix string) *Generator {
	return &Generator{e: e, title: title, version: version, prefix: prefix}
}

// GenerateSpec produces the OpenAPI document as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	routes := g.e.Routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	paths := make(map[string]interface{})
	for _, r := range routes {
		if !strings.HasPrefix(r.Path, g.prefix) || strings.Contains(r.Path, "*") {
			continue
		}
		method := strings.ToLower(r.Method)
		switch method {
		case "get", "post", "put", "delete", "patch":
		default:
			continue
		}

		path, params := convertPath(r.Path)
		item, _ := paths[path].(map[string]interface{})
		if item == nil {
			item = make(map[string]interface{})
			paths[path] = item
		}

		opID := operationID(r.Name)
		op := map[string]interface{}{
			"summary":     summarize(opID),
			"operationId": opID + "_" + method,
			"tags":        []string{tagFor(strings.TrimPrefix(r.Path, g.prefix))},
			"responses":   buildResponses(),
		}
		if len(params) > 0 {
			op["parameters"] = params
		}
		if method == "post" || method == "put" || method == "patch" {
			op["requestBody"] = map[string]interface{}{
				"required": true,
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{
						"schema": map[string]string{"type": "object"},
					},
				},
			}
		}
		item[method] = op
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   g.title,
			"version": g.version,
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"ErrorResponse": map[string]interface{}{
					"type":     "object",
					"required": []string{"error_detail"},
					"properties": map[string]interface{}{
						"error_detail": map[string]string{"type": "string"},
					},
				},
			},
		},
	}
}

// convertPath rewrites echo's :param segments to {param} and returns the
// matching path parameters.
func convertPath(p string) (string, []map[string]interface{}) {
	segs := strings.Split(p, "/")
	var params []map[string]interface{}
	for i, s := range segs {
		if !strings.HasPrefix(s, ":") {
			continue
		}
		name := s[1:]
		segs[i] = "{" + name + "}"
		params = append(params, map[string]interface{}{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   map[string]string{"type": "integer", "format": "int64"},
		})
	}
	return strings.Join(segs, "/"), params
}

// operationID extracts the method name from an echo route name such as
// "github.com/x/y.(*Handler).BookAppointment-fm".
func operationID(name string) string {
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || strings.HasPrefix(name, "func") {
		return "handler"
	}
	return name
}

// summarize turns "BookAppointment" into "Book appointment".
func summarize(id string) string {
	var b strings.Builder
	for i, r := range id {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func tagFor(rel string) string {
	rel = strings.Trim(rel, "/")
	if i := strings.Index(rel, "/"); i >= 0 {
		rel = rel[:i]
	}
	if rel == "" {
		return "default"
	}
	return rel
}

func buildResponses() map[string]interface{} {
	errResp := func(desc string) map[string]interface{} {
		return map[string]interface{}{
			"description": desc,
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{
					"schema": map[string]string{"$ref": "#/components/schemas/ErrorResponse"},
				},
			},
		}
	}
	return map[string]interface{}{
		"2XX": map[string]interface{}{"description": "Success"},
		"4XX": errResp("Client error"),
		"5XX": errResp("Server error"),
	}
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Clinic Scheduling API - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" >
  <style>
    body { margin: 0; background: #fafafa; }
  </style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({ url: "/api/openapi.json", dom_id: '#swagger-ui', deepLinking: true })
  </script>
</body>
</html>`

// RegisterRoutes serves the document at /openapi.json and a Swagger UI page
// at /docs under group.
func (g *Generator) RegisterRoutes(group *echo.Group) {
	group.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
	group.GET("/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
}
