package builtin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ramizpolic/agenthost/internal/tools"
)

func newExecutor(t *testing.T) *tools.Executor {
	t.Helper()
	registry := tools.NewRegistry()
	if err := RegisterAll(registry); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}
	return tools.NewExecutor(registry)
}

func TestRegisterAll(t *testing.T) {
	registry := tools.NewRegistry()
	if err := RegisterAll(registry); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}

	want := []string{"current_time", "fetch", "list_directory", "read_file"}
	list := registry.List()
	if len(list) != len(want) {
		t.Fatalf("registered %d tools, want %d", len(list), len(want))
	}
	for i, def := range list {
		if def.Name != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, def.Name, want[i])
		}
	}

	// Registering twice must fail on the duplicate names.
	if err := RegisterAll(registry); err == nil {
		t.Error("RegisterAll() twice succeeded")
	}
}

func TestCurrentTime(t *testing.T) {
	executor := newExecutor(t)

	t.Run("default rfc3339", func(t *testing.T) {
		result := executor.Execute(context.Background(), "current_time", nil)
		if !result.Success {
			t.Fatalf("Execute() failed: %v", result.Errors)
		}
		if _, err := time.Parse(time.RFC3339, result.Data.(string)); err != nil {
			t.Errorf("Data = %v is not RFC 3339", result.Data)
		}
	})

	t.Run("unix format", func(t *testing.T) {
		result := executor.Execute(context.Background(), "current_time", map[string]any{"format": "unix"})
		if !result.Success {
			t.Fatalf("Execute() failed: %v", result.Errors)
		}
		secs, err := strconv.ParseInt(result.Data.(string), 10, 64)
		if err != nil || secs <= 0 {
			t.Errorf("Data = %v", result.Data)
		}
	})

	t.Run("invalid format rejected by enum", func(t *testing.T) {
		result := executor.Execute(context.Background(), "current_time", map[string]any{"format": "stardate"})
		if result.Success {
			t.Error("enum violation accepted")
		}
	})

	t.Run("unknown timezone fails as data", func(t *testing.T) {
		result := executor.Execute(context.Background(), "current_time", map[string]any{"timezone": "Mars/Olympus"})
		if result.Success {
			t.Error("unknown timezone accepted")
		}
		if len(result.Errors) == 0 {
			t.Error("failure carries no error")
		}
	})
}

func TestReadFile(t *testing.T) {
	executor := newExecutor(t)

	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	result := executor.Execute(context.Background(), "read_file", map[string]any{"path": path})
	if !result.Success || result.Data != "hello world" {
		t.Errorf("result = %+v", result)
	}

	// Truncation is reported through metadata.
	short := executor.Execute(context.Background(), "read_file", map[string]any{
		"path": path, "max_bytes": 5.0,
	})
	if !short.Success || short.Data != "hello" {
		t.Errorf("truncated result = %+v", short)
	}
	if short.Metadata["truncated"] != "true" {
		t.Errorf("metadata = %v", short.Metadata)
	}

	missing := executor.Execute(context.Background(), "read_file", map[string]any{"path": path + ".gone"})
	if missing.Success {
		t.Error("reading a missing file succeeded")
	}
}

func TestListDirectory(t *testing.T) {
	executor := newExecutor(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "a"), 0o755); err != nil {
		t.Fatal(err)
	}

	result := executor.Execute(context.Background(), "list_directory", map[string]any{"path": dir})
	if !result.Success {
		t.Fatalf("Execute() failed: %v", result.Errors)
	}
	names := result.Data.([]string)
	if len(names) != 2 || names[0] != "a"+string(filepath.Separator) || names[1] != "b.txt" {
		t.Errorf("names = %v", names)
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><script>evil()</script></head>
<body><h1>Title</h1><p>Some <strong>bold</strong> text.</p></body></html>`))
	}))
	defer server.Close()

	executor := newExecutor(t)

	t.Run("markdown strips scripts", func(t *testing.T) {
		result := executor.Execute(context.Background(), "fetch", map[string]any{"url": server.URL})
		if !result.Success {
			t.Fatalf("Execute() failed: %v", result.Errors)
		}
		body := result.Data.(string)
		if !strings.Contains(body, "# Title") || !strings.Contains(body, "**bold**") {
			t.Errorf("markdown = %q", body)
		}
		if strings.Contains(body, "evil()") {
			t.Error("script content leaked into markdown")
		}
	})

	t.Run("text format", func(t *testing.T) {
		result := executor.Execute(context.Background(), "fetch", map[string]any{
			"url": server.URL, "format": "text",
		})
		if !result.Success {
			t.Fatalf("Execute() failed: %v", result.Errors)
		}
		body := result.Data.(string)
		if !strings.Contains(body, "Title") || strings.Contains(body, "<h1>") {
			t.Errorf("text = %q", body)
		}
	})

	t.Run("html format returns raw body", func(t *testing.T) {
		result := executor.Execute(context.Background(), "fetch", map[string]any{
			"url": server.URL, "format": "html",
		})
		if !result.Success {
			t.Fatalf("Execute() failed: %v", result.Errors)
		}
		if !strings.Contains(result.Data.(string), "<h1>Title</h1>") {
			t.Errorf("html = %q", result.Data)
		}
	})

	t.Run("non-http scheme rejected", func(t *testing.T) {
		result := executor.Execute(context.Background(), "fetch", map[string]any{"url": "ftp://example.com"})
		if result.Success {
			t.Error("ftp URL accepted")
		}
	})

	t.Run("server error is data", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer failing.Close()

		result := executor.Execute(context.Background(), "fetch", map[string]any{"url": failing.URL})
		if result.Success {
			t.Error("502 response accepted")
		}
	})
}
