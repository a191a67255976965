package builtin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ramizpolic/agenthost/internal/tools"
)

func registerTimeTool(registry *tools.Registry) error {
	def := tools.Definition{
		Name:        "current_time",
		Description: "Returns the current date and time, optionally in a specific timezone and format.",
		Category:    "utility",
		Version:     "1.0",
		Parameters: []tools.Parameter{
			{
				Name:        "format",
				Type:        tools.TypeString,
				Description: "Output format for the timestamp",
				Enum:        []string{"rfc3339", "unix", "date", "time"},
				Default:     "rfc3339",
			},
			{
				Name:        "timezone",
				Type:        tools.TypeString,
				Description: "IANA timezone name, e.g. Europe/Berlin (defaults to UTC)",
			},
		},
		Returns: map[string]any{"type": "string"},
	}

	return registry.Register(def, func(_ context.Context, params map[string]any) (*tools.ExecutionResult, error) {
		now := time.Now().UTC()
		if tz, ok := params["timezone"].(string); ok && tz != "" {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return nil, fmt.Errorf("unknown timezone %q", tz)
			}
			now = now.In(loc)
		}

		format, _ := params["format"].(string)
		var rendered string
		switch format {
		case "unix":
			rendered = strconv.FormatInt(now.Unix(), 10)
		case "date":
			rendered = now.Format("2006-01-02")
		case "time":
			rendered = now.Format("15:04:05")
		default:
			rendered = now.Format(time.RFC3339)
		}
		return tools.Succeed(rendered, "text"), nil
	})
}
