package tools

import "encoding/json"

// ExecutionResult captures the outcome of a tool invocation as plain data.
// Failure is not an error value: Success=false with a non-empty Errors list
// and nil Data, so the orchestration loop can feed it back to the model
// instead of unwinding.
type ExecutionResult struct {
	Success  bool              `json:"success"`
	Data     any               `json:"data"`
	Format   string            `json:"format,omitempty"`
	Errors   []string          `json:"errors,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Succeed builds a successful result carrying data in the given format.
func Succeed(data any, format string) *ExecutionResult {
	return &ExecutionResult{Success: true, Data: data, Format: format}
}

// Fail builds a failed result from one error string per violation.
func Fail(errs ...string) *ExecutionResult {
	return &ExecutionResult{Success: false, Errors: errs}
}

// Content renders the result as the text fed back to the model. Structured
// data is serialized as JSON; failures list their errors line by line.
func (r *ExecutionResult) Content() string {
	if !r.Success {
		out := "tool execution failed"
		for _, e := range r.Errors {
			out += "\n" + e
		}
		return out
	}
	switch data := r.Data.(type) {
	case nil:
		return ""
	case string:
		return data
	default:
		encoded, err := json.Marshal(data)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
