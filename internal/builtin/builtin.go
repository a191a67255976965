// Package builtin provides the tools every agenthost process registers at
// startup: clock access, read-only filesystem access and web fetching. Each
// tool is an ordinary registry entry; nothing here is special-cased by the
// orchestration loop.
package builtin

import (
	"github.com/ramizpolic/agenthost/internal/tools"
)

// RegisterAll registers every builtin tool on the given registry.
// Registration fails fast on duplicate names so a caller shadowing a
// builtin finds out at startup, not mid-conversation.
func RegisterAll(registry *tools.Registry) error {
	register := []func(*tools.Registry) error{
		registerTimeTool,
		registerFileTools,
		registerFetchTool,
	}
	for _, fn := range register {
		if err := fn(registry); err != nil {
			return err
		}
	}
	return nil
}

func floatPtr(f float64) *float64 {
	return &f
}
