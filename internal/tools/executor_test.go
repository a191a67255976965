package tools

import (
	"context"
	"fmt"
	"sort"
	"testing"
)

// weatherRegistry registers a get_weather tool that echoes its parameters,
// the canonical fixture for validation tests.
func weatherRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	min := -50.0
	max := 60.0
	def := Definition{
		Name:        "get_weather",
		Description: "Look up the weather",
		Parameters: []Parameter{
			{Name: "location", Type: TypeString, Required: true},
			{Name: "units", Type: TypeString, Enum: []string{"celsius", "fahrenheit"}, Default: "celsius"},
			{Name: "days", Type: TypeInteger, Minimum: &min, Maximum: &max},
		},
	}
	err := registry.Register(def, func(ctx context.Context, params map[string]any) (*ExecutionResult, error) {
		return Succeed(fmt.Sprintf("weather for %v in %v", params["location"], params["units"]), "text"), nil
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return registry
}

func TestExecuteSuccess(t *testing.T) {
	executor := NewExecutor(weatherRegistry(t))

	result := executor.Execute(context.Background(), "get_weather", map[string]any{"location": "Oslo"})
	if !result.Success {
		t.Fatalf("Execute() failed: %v", result.Errors)
	}
	// Default applied for the omitted units parameter.
	if result.Data != "weather for Oslo in celsius" {
		t.Errorf("Data = %v", result.Data)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want empty", result.Errors)
	}
}

func TestExecuteDoesNotMutateCallerParams(t *testing.T) {
	executor := NewExecutor(weatherRegistry(t))

	params := map[string]any{"location": "Oslo"}
	result := executor.Execute(context.Background(), "get_weather", params)
	if !result.Success {
		t.Fatalf("Execute() failed: %v", result.Errors)
	}
	// The units default reached the tool but not the caller's map.
	if result.Data != "weather for Oslo in celsius" {
		t.Errorf("Data = %v", result.Data)
	}
	if _, leaked := params["units"]; leaked {
		t.Errorf("default leaked into caller params: %v", params)
	}
	if len(params) != 1 {
		t.Errorf("caller params = %v, want only location", params)
	}
}

func TestExecuteValidationFailures(t *testing.T) {
	executor := NewExecutor(weatherRegistry(t))

	tests := []struct {
		name     string
		params   map[string]any
		wantErrs []string
	}{
		{
			name:     "missing required parameter",
			params:   map[string]any{},
			wantErrs: []string{"missing required parameter: location"},
		},
		{
			name:     "unknown parameter",
			params:   map[string]any{"location": "Oslo", "country": "NO"},
			wantErrs: []string{"unknown parameter: country"},
		},
		{
			name:   "all violations reported together",
			params: map[string]any{"country": "NO", "units": "kelvin"},
			wantErrs: []string{
				"missing required parameter: location",
				"unknown parameter: country",
				`parameter units: value "kelvin" not in [celsius fahrenheit]`,
			},
		},
		{
			name:     "wrong type",
			params:   map[string]any{"location": 42},
			wantErrs: []string{"parameter location: expected string but got int"},
		},
		{
			name:     "integer must be whole",
			params:   map[string]any{"location": "Oslo", "days": 1.5},
			wantErrs: []string{"parameter days: expected integer but got float64"},
		},
		{
			name:     "below minimum",
			params:   map[string]any{"location": "Oslo", "days": -100.0},
			wantErrs: []string{"parameter days: -100 below minimum -50"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := executor.Execute(context.Background(), "get_weather", tt.params)
			if result.Success {
				t.Fatal("Execute() succeeded, want validation failure")
			}
			if result.Data != nil {
				t.Errorf("failed result carries data: %v", result.Data)
			}
			got := append([]string(nil), result.Errors...)
			want := append([]string(nil), tt.wantErrs...)
			sort.Strings(got)
			sort.Strings(want)
			if len(got) != len(want) {
				t.Fatalf("Errors = %v, want %v", result.Errors, tt.wantErrs)
			}
			for i := range got {
				if got[i] != want[i] {
					t.Errorf("Errors = %v, want %v", result.Errors, tt.wantErrs)
					break
				}
			}
		})
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	executor := NewExecutor(NewRegistry())
	result := executor.Execute(context.Background(), "ghost", nil)
	if result.Success {
		t.Fatal("Execute() succeeded for an unregistered tool")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "tool ghost not found" {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestExecutePanicRecovery(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(Definition{Name: "boom"}, func(ctx context.Context, params map[string]any) (*ExecutionResult, error) {
		panic("kaput")
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result := NewExecutor(registry).Execute(context.Background(), "boom", nil)
	if result.Success {
		t.Fatal("Execute() succeeded despite panic")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "tool boom panicked: kaput" {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestExecuteToolError(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(Definition{Name: "flaky"}, func(ctx context.Context, params map[string]any) (*ExecutionResult, error) {
		return nil, fmt.Errorf("backend unavailable")
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result := NewExecutor(registry).Execute(context.Background(), "flaky", nil)
	if result.Success {
		t.Fatal("Execute() succeeded despite tool error")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "tool flaky failed: backend unavailable" {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestExecuteMalformedJSONOutput(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(Definition{Name: "badjson"}, func(ctx context.Context, params map[string]any) (*ExecutionResult, error) {
		return Succeed("{not json", "json"), nil
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result := NewExecutor(registry).Execute(context.Background(), "badjson", nil)
	if result.Success {
		t.Fatal("Execute() accepted malformed JSON output")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "tool badjson returned malformed JSON payload" {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestResultContent(t *testing.T) {
	tests := []struct {
		name   string
		result *ExecutionResult
		want   string
	}{
		{
			name:   "string data verbatim",
			result: Succeed("plain text", "text"),
			want:   "plain text",
		},
		{
			name:   "structured data marshaled",
			result: Succeed(map[string]any{"n": 1}, "json"),
			want:   `{"n":1}`,
		},
		{
			name:   "failure lists errors",
			result: Fail("first", "second"),
			want:   "tool execution failed\nfirst\nsecond",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Content(); got != tt.want {
				t.Errorf("Content() = %q, want %q", got, tt.want)
			}
		})
	}
}
