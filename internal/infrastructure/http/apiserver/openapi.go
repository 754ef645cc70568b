package apiserver

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPIHandler serves the API description
type OpenAPIHandler struct {
	logger *zap.Logger
	yaml   []byte
	json   []byte
}

// NewOpenAPIHandler parses the embedded document once. A document that
// fails to convert is still served as YAML.
func NewOpenAPIHandler(logger *zap.Logger) *OpenAPIHandler {
	h := &OpenAPIHandler{logger: logger, yaml: openAPISpec}

	doc, err := yamlToJSON(openAPISpec)
	if err != nil {
		logger.Error("Failed to convert OpenAPI document", zap.Error(err))
		return h
	}
	h.json = doc
	return h
}

// ServeYAML handles GET /api/openapi.yaml
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.yaml)
}

// ServeJSON handles GET /api/openapi.json
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	if h.json == nil {
		http.Error(w, "OpenAPI document unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.json)
}

func yamlToJSON(src []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(jsonCompatible(doc))
}

// jsonCompatible rewrites the map[interface{}]interface{} nodes yaml.v2
// produces into string-keyed maps
func jsonCompatible(v interface{}) interface{} {
	switch node := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(node))
		for k, val := range node {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []interface{}:
		for i, val := range node {
			node[i] = jsonCompatible(val)
		}
		return node
	default:
		return v
	}
}
