package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseScript(t *testing.T) {
	content := `---
model: "ollama:qwen2.5:3b"
max-steps: 5
---
Summarize the report.`

	script, err := ParseScript(content, nil)
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}
	if script.Config.Model != "ollama:qwen2.5:3b" || script.Config.MaxSteps != 5 {
		t.Errorf("config = %+v", script.Config)
	}
	if script.Prompt != "Summarize the report." {
		t.Errorf("prompt = %q", script.Prompt)
	}
}

func TestParseScriptNoFrontmatter(t *testing.T) {
	script, err := ParseScript("Just a prompt\nacross two lines.", nil)
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}
	if script.Prompt != "Just a prompt\nacross two lines." {
		t.Errorf("prompt = %q", script.Prompt)
	}
	if script.Config.Model != "" {
		t.Errorf("config = %+v", script.Config)
	}
}

func TestParseScriptVariables(t *testing.T) {
	content := `---
model: "anthropic:claude-sonnet-4-20250514"
---
List the files in ${directory} for ${user:-nobody}.`

	script, err := ParseScript(content, map[string]string{"directory": "/tmp"})
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}
	if script.Prompt != "List the files in /tmp for nobody." {
		t.Errorf("prompt = %q", script.Prompt)
	}

	if _, err := ParseScript(content, nil); err == nil {
		t.Error("ParseScript() accepted a missing required variable")
	}
}

func TestParseScriptUnterminatedFrontmatter(t *testing.T) {
	if _, err := ParseScript("---\nmodel: x\nno closing fence", nil); err == nil {
		t.Error("ParseScript() accepted unterminated frontmatter")
	}
}

func TestParseScriptBadYAML(t *testing.T) {
	if _, err := ParseScript("---\n\t tabs: are: not: yaml\n---\nprompt", nil); err == nil {
		t.Error("ParseScript() accepted malformed frontmatter")
	}
}

func TestParseScriptFileShebang(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.sh")
	content := `#!/usr/bin/env agenthost
---
max-steps: 3
---
Do the thing.`
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}

	script, err := ParseScriptFile(path, nil)
	if err != nil {
		t.Fatalf("ParseScriptFile() error = %v", err)
	}
	if script.Config.MaxSteps != 3 || script.Prompt != "Do the thing." {
		t.Errorf("script = %+v", script)
	}
}
