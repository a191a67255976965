package tools

import (
	"fmt"

	"github.com/ramizpolic/agenthost/pkg/llm"
)

// ParameterType is the semantic type of a tool parameter, matching the JSON
// Schema primitive vocabulary.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeInteger ParameterType = "integer"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
)

// Parameter describes one input of a tool. Required parameters carry no
// default; Enum, Minimum and Maximum constrain the accepted values; Items
// describes array elements.
type Parameter struct {
	Name        string         `json:"name"`
	Type        ParameterType  `json:"type"`
	Description string         `json:"description"`
	Required    bool           `json:"required"`
	Default     any            `json:"default,omitempty"`
	Enum        []string       `json:"enum,omitempty"`
	Minimum     *float64       `json:"minimum,omitempty"`
	Maximum     *float64       `json:"maximum,omitempty"`
	Items       map[string]any `json:"items,omitempty"`
}

// Definition is the immutable description of an invocable tool: its unique
// name, its parameters, and what it returns. The executable itself is kept
// separately by the registry.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category,omitempty"`
	Version     string         `json:"version,omitempty"`
	Parameters  []Parameter    `json:"parameters"`
	Returns     map[string]any `json:"returns,omitempty"`
}

// Validate checks the structural invariants of a definition: a non-empty
// unique name, unique parameter names, and no defaults on required
// parameters.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	seen := make(map[string]bool, len(d.Parameters))
	for _, param := range d.Parameters {
		if param.Name == "" {
			return fmt.Errorf("tool %s has a parameter with an empty name", d.Name)
		}
		if seen[param.Name] {
			return fmt.Errorf("tool %s declares parameter %s twice", d.Name, param.Name)
		}
		seen[param.Name] = true
		if param.Required && param.Default != nil {
			return fmt.Errorf("tool %s: required parameter %s must not have a default", d.Name, param.Name)
		}
	}
	return nil
}

// Parameter looks up a declared parameter by name.
func (d *Definition) Parameter(name string) (Parameter, bool) {
	for _, param := range d.Parameters {
		if param.Name == name {
			return param, true
		}
	}
	return Parameter{}, false
}

// Schema renders the definition as the neutral tool schema handed to
// provider adapters. All declared constraints survive the conversion so the
// model sees the same contract the executor enforces.
func (d *Definition) Schema() llm.Tool {
	properties := make(map[string]any, len(d.Parameters))
	var required []string

	for _, param := range d.Parameters {
		prop := map[string]any{
			"type":        string(param.Type),
			"description": param.Description,
		}
		if len(param.Enum) > 0 {
			prop["enum"] = param.Enum
		}
		if param.Minimum != nil {
			prop["minimum"] = *param.Minimum
		}
		if param.Maximum != nil {
			prop["maximum"] = *param.Maximum
		}
		if param.Default != nil {
			prop["default"] = param.Default
		}
		if param.Items != nil {
			prop["items"] = param.Items
		}
		properties[param.Name] = prop

		if param.Required {
			required = append(required, param.Name)
		}
	}

	return llm.Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: llm.Schema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}
