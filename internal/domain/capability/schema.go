package capability

import (
	"encoding/json"
	"fmt"
)

// Validator checks invocation arguments against a capability's input schema.
// Compiled once at catalog build time and reused for every invocation.
type Validator func(args map[string]any) error

// inputSchema is the subset of JSON Schema the compiler understands:
// an object with typed properties and a required list. Unknown keywords
// are ignored; unknown argument fields are tolerated.
type inputSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]propertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

type propertySchema struct {
	Type string   `json:"type"`
	Enum []string `json:"enum"`
}

// CompileValidator builds a reusable argument validator from a raw JSON
// schema. A nil or empty schema yields a validator that accepts anything.
func CompileValidator(raw []byte) (Validator, error) {
	if len(raw) == 0 {
		return func(map[string]any) error { return nil }, nil
	}

	var schema inputSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("parse input schema: %w", err)
	}

	required := append([]string(nil), schema.Required...)
	props := make(map[string]propertySchema, len(schema.Properties))
	for name, p := range schema.Properties {
		props[name] = p
	}

	return func(args map[string]any) error {
		for _, name := range required {
			if _, ok := args[name]; !ok {
				return fmt.Errorf("missing required argument %q", name)
			}
		}
		for name, val := range args {
			p, ok := props[name]
			if !ok {
				continue
			}
			if err := checkType(name, p, val); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

func checkType(name string, p propertySchema, val any) error {
	if val == nil {
		return nil
	}
	switch p.Type {
	case "string":
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
		if len(p.Enum) > 0 && !contains(p.Enum, s) {
			return fmt.Errorf("argument %q must be one of %v", name, p.Enum)
		}
	case "number", "integer":
		switch val.(type) {
		case float64, int, int64, json.Number:
		default:
			return fmt.Errorf("argument %q must be a number", name)
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", name)
		}
	case "array":
		if _, ok := val.([]any); !ok {
			return fmt.Errorf("argument %q must be an array", name)
		}
	case "object":
		if _, ok := val.(map[string]any); !ok {
			return fmt.Errorf("argument %q must be an object", name)
		}
	}
	return nil
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
