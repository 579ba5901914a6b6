package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"studiomcp/internal/scenario"
)

// ValidationError is returned for arguments that fail the declared schema
// or the parameter rules. It is raised before any upstream call.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("literal", func(fl validator.FieldLevel) bool {
		return scenario.IsLiteral(fl.Field().String())
	})
	return v
}

// compileSchema compiles the tool's declared input schema.
func compileSchema(tool mcp.Tool) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema of %s: %w", tool.Name, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://studiomcp.local/tools/%s.schema.json", tool.Name)
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to load input schema of %s: %w", tool.Name, err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile input schema of %s: %w", tool.Name, err)
	}
	return schema, nil
}

// normalizeArguments returns a JSON-shaped copy of args with the schema
// defaults filled in for absent properties.
func normalizeArguments(tool mcp.Tool, args map[string]any) (map[string]any, error) {
	out := map[string]any{}
	if len(args) > 0 {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
	}

	for name, prop := range tool.InputSchema.Properties {
		if _, present := out[name]; present {
			continue
		}
		if p, ok := prop.(map[string]any); ok {
			if def, ok := p["default"]; ok {
				out[name] = def
			}
		}
	}
	return out, nil
}

// decodeParams validates args against the compiled schema, decodes them
// into P and applies the struct rules.
func decodeParams[P any](toolName string, schema *jsonschema.Schema, args map[string]any) (P, error) {
	var params P

	if schema != nil {
		if err := schema.Validate(args); err != nil {
			return params, &ValidationError{Tool: toolName, Reason: schemaReason(err)}
		}
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return params, &ValidationError{Tool: toolName, Reason: err.Error()}
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return params, &ValidationError{Tool: toolName, Reason: err.Error()}
	}

	if err := validate.Struct(params); err != nil {
		return params, &ValidationError{Tool: toolName, Reason: structReason(err)}
	}
	return params, nil
}

func schemaReason(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	location := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if location == "" {
		return leaf.Message
	}
	return fmt.Sprintf("%s: %s", strings.ReplaceAll(location, "/", "."), leaf.Message)
}

func structReason(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			reasons = append(reasons, fmt.Sprintf("%s is required", field))
		case "literal":
			reasons = append(reasons, fmt.Sprintf("%s must not contain a single quote or a line break", field))
		case "oneof":
			reasons = append(reasons, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "min":
			reasons = append(reasons, fmt.Sprintf("%s must contain at least %s entries", field, fe.Param()))
		default:
			reasons = append(reasons, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(reasons, "; ")
}
