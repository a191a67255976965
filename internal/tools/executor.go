package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
)

// Executor runs registered tools behind a failure boundary. Execute never
// returns a Go error and never panics: every failure mode is encoded in the
// returned ExecutionResult so the conversation loop can hand it back to the
// model as data.
type Executor struct {
	registry *Registry
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Execute looks up, validates and invokes a tool by name.
func (e *Executor) Execute(ctx context.Context, name string, params map[string]any) *ExecutionResult {
	entry, ok := e.registry.lookup(name)
	if !ok {
		return Fail(fmt.Sprintf("tool %s not found", name))
	}

	// Defaults are applied to a copy: the caller's map is the record of
	// what the model actually sent and must stay untouched.
	args := make(map[string]any, len(params))
	for k, v := range params {
		args[k] = v
	}
	if errs := validateParameters(entry.definition, args); len(errs) > 0 {
		return Fail(errs...)
	}
	applyDefaults(entry.definition, args)

	result := e.invoke(ctx, entry, args)

	// A tool claiming JSON output must actually produce JSON.
	if result.Success && result.Format == "json" {
		if payload, ok := result.Data.(string); ok && !json.Valid([]byte(payload)) {
			return Fail(fmt.Sprintf("tool %s returned malformed JSON payload", name))
		}
	}
	return result
}

// invoke calls the tool function with a recover boundary so a panicking
// tool cannot crash the orchestration loop.
func (e *Executor) invoke(ctx context.Context, entry entry, params map[string]any) (result *ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("tool panicked", "tool", entry.definition.Name, "panic", r)
			result = Fail(fmt.Sprintf("tool %s panicked: %v", entry.definition.Name, r))
		}
	}()

	result, err := entry.fn(ctx, params)
	if err != nil {
		return Fail(fmt.Sprintf("tool %s failed: %v", entry.definition.Name, err))
	}
	if result == nil {
		return Fail(fmt.Sprintf("tool %s returned no result", entry.definition.Name))
	}
	return result
}

// validateParameters checks the supplied parameters against the definition
// and reports one error string per violation, not just the first.
func validateParameters(def Definition, params map[string]any) []string {
	var errs []string

	for _, param := range def.Parameters {
		if _, present := params[param.Name]; param.Required && !present {
			errs = append(errs, fmt.Sprintf("missing required parameter: %s", param.Name))
		}
	}

	for name, value := range params {
		param, declared := def.Parameter(name)
		if !declared {
			errs = append(errs, fmt.Sprintf("unknown parameter: %s", name))
			continue
		}

		if err := checkType(value, param.Type); err != nil {
			errs = append(errs, fmt.Sprintf("parameter %s: %v", name, err))
			continue
		}

		if len(param.Enum) > 0 {
			if str, ok := value.(string); ok && !contains(param.Enum, str) {
				errs = append(errs, fmt.Sprintf("parameter %s: value %q not in %v", name, str, param.Enum))
			}
		}

		if param.Minimum != nil || param.Maximum != nil {
			if num, ok := asFloat(value); ok {
				if param.Minimum != nil && num < *param.Minimum {
					errs = append(errs, fmt.Sprintf("parameter %s: %v below minimum %v", name, num, *param.Minimum))
				}
				if param.Maximum != nil && num > *param.Maximum {
					errs = append(errs, fmt.Sprintf("parameter %s: %v above maximum %v", name, num, *param.Maximum))
				}
			}
		}
	}

	return errs
}

func applyDefaults(def Definition, params map[string]any) {
	for _, param := range def.Parameters {
		if param.Default == nil {
			continue
		}
		if _, present := params[param.Name]; !present {
			params[param.Name] = param.Default
		}
	}
}

// checkType verifies a value against the declared semantic type. Numbers
// arrive as float64 after JSON decoding, so integer checks accept whole
// floats.
func checkType(value any, expected ParameterType) error {
	switch expected {
	case TypeString:
		if _, ok := value.(string); ok {
			return nil
		}
	case TypeNumber:
		if _, ok := asFloat(value); ok {
			return nil
		}
	case TypeInteger:
		if num, ok := asFloat(value); ok && math.Trunc(num) == num {
			return nil
		}
	case TypeBoolean:
		if _, ok := value.(bool); ok {
			return nil
		}
	case TypeArray:
		if _, ok := value.([]any); ok {
			return nil
		}
	case TypeObject:
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	default:
		return fmt.Errorf("unsupported parameter type %q", expected)
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
