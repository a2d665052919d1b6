package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a raw OpenAPI/Swagger document decoded into generic maps.
// Both JSON and YAML sources decode to the same shape.
type Document map[string]interface{}

// SchemaType identifies the document flavor.
type SchemaType string

const (
	SchemaTypeOpenAPI SchemaType = "openapi"
	SchemaTypeSwagger SchemaType = "swagger"
	SchemaTypeUnknown SchemaType = "unknown"
)

// SchemaValidationError is fatal: the document cannot be analyzed at all.
type SchemaValidationError struct {
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %s", e.Reason)
}

// ParseDocument decodes raw JSON or YAML bytes into a Document. JSON is
// tried first since most swagger endpoints serve JSON.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document as JSON or YAML: %w", err)
	}
	return doc, nil
}

// LoadDocumentFile reads and parses a schema document from disk.
func LoadDocumentFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// DetectSchemaType detects the schema flavor and version. When neither
// version marker is present it falls back to structural inference:
// components implies OpenAPI 3.0, definitions implies Swagger 2.0.
func DetectSchemaType(doc Document) (SchemaType, string) {
	if doc == nil {
		return SchemaTypeUnknown, ""
	}

	if v, ok := doc["openapi"].(string); ok {
		switch {
		case strings.HasPrefix(v, "3.0"):
			return SchemaTypeOpenAPI, "3.0.0"
		case strings.HasPrefix(v, "3.1"):
			return SchemaTypeOpenAPI, "3.1.0"
		default:
			return SchemaTypeOpenAPI, v
		}
	}

	if v, ok := doc["swagger"].(string); ok {
		if strings.HasPrefix(v, "2.") {
			return SchemaTypeSwagger, "2.0"
		}
		return SchemaTypeSwagger, v
	}

	// No version marker; infer from structure.
	_, hasPaths := doc["paths"]
	_, hasInfo := doc["info"]
	if hasPaths && hasInfo {
		if _, ok := doc["components"]; ok {
			return SchemaTypeOpenAPI, "3.0.0"
		}
		if _, ok := doc["definitions"]; ok {
			return SchemaTypeSwagger, "2.0"
		}
		return SchemaTypeOpenAPI, "3.0.0"
	}

	return SchemaTypeUnknown, ""
}

// ValidateDocument checks that the document has the minimal shape required
// for analysis. Any failure here aborts the whole run.
func ValidateDocument(doc Document) error {
	if doc == nil {
		return &SchemaValidationError{Reason: "document is empty"}
	}

	if _, ok := doc["paths"]; !ok {
		return &SchemaValidationError{Reason: "missing required 'paths' field"}
	}
	if _, ok := doc["info"]; !ok {
		return &SchemaValidationError{Reason: "missing required 'info' field"}
	}

	if _, ok := doc["paths"].(map[string]interface{}); !ok {
		return &SchemaValidationError{Reason: "'paths' must be an object"}
	}
	if _, ok := doc["info"].(map[string]interface{}); !ok {
		return &SchemaValidationError{Reason: "'info' must be an object"}
	}

	if schemaType, _ := DetectSchemaType(doc); schemaType == SchemaTypeUnknown {
		return &SchemaValidationError{Reason: "could not detect schema type (missing 'openapi' or 'swagger' field)"}
	}

	return nil
}
