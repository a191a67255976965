package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ramizpolic/agenthost/internal/tools"
)

const maxReadBytes = 1 << 20

func registerFileTools(registry *tools.Registry) error {
	if err := registerReadFile(registry); err != nil {
		return err
	}
	return registerListDirectory(registry)
}

func registerReadFile(registry *tools.Registry) error {
	def := tools.Definition{
		Name:        "read_file",
		Description: "Reads a text file from the local filesystem and returns its contents.",
		Category:    "filesystem",
		Version:     "1.0",
		Parameters: []tools.Parameter{
			{
				Name:        "path",
				Type:        tools.TypeString,
				Description: "Path of the file to read",
				Required:    true,
			},
			{
				Name:        "max_bytes",
				Type:        tools.TypeInteger,
				Description: "Truncate the file after this many bytes",
				Minimum:     floatPtr(1),
				Maximum:     floatPtr(maxReadBytes),
			},
		},
		Returns: map[string]any{"type": "string"},
	}

	return registry.Register(def, func(_ context.Context, params map[string]any) (*tools.ExecutionResult, error) {
		path, _ := params["path"].(string)
		data, err := os.ReadFile(path)
		if err != nil {
			return tools.Fail(fmt.Sprintf("cannot read %s: %v", path, err)), nil
		}

		limit := maxReadBytes
		if raw, ok := params["max_bytes"].(float64); ok {
			limit = int(raw)
		}
		truncated := false
		if len(data) > limit {
			data = data[:limit]
			truncated = true
		}

		result := tools.Succeed(string(data), "text")
		if truncated {
			result.Metadata = map[string]string{"truncated": "true"}
		}
		return result, nil
	})
}

func registerListDirectory(registry *tools.Registry) error {
	def := tools.Definition{
		Name:        "list_directory",
		Description: "Lists the entries of a directory on the local filesystem.",
		Category:    "filesystem",
		Version:     "1.0",
		Parameters: []tools.Parameter{
			{
				Name:        "path",
				Type:        tools.TypeString,
				Description: "Path of the directory to list",
				Required:    true,
			},
		},
		Returns: map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	}

	return registry.Register(def, func(_ context.Context, params map[string]any) (*tools.ExecutionResult, error) {
		path, _ := params["path"].(string)
		entries, err := os.ReadDir(path)
		if err != nil {
			return tools.Fail(fmt.Sprintf("cannot list %s: %v", path, err)), nil
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() {
				name += string(filepath.Separator)
			}
			names = append(names, name)
		}
		sort.Strings(names)
		return tools.Succeed(names, "json"), nil
	})
}
