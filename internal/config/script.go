package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Script is a parsed script file: optional YAML frontmatter between ---
// delimiters, followed by the prompt body.
type Script struct {
	Config *Config
	Prompt string
}

// ParseScriptFile reads and parses a script file, substituting ${VAR}
// references with the supplied arguments first. A leading shebang line
// is ignored so scripts can be executable.
func ParseScriptFile(path string, args map[string]string) (*Script, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			if strings.HasPrefix(line, "#!") {
				continue
			}
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}

	return ParseScript(strings.Join(lines, "\n"), args)
}

// ParseScript parses script content. Content without frontmatter is
// treated as a bare prompt.
func ParseScript(content string, args map[string]string) (*Script, error) {
	if HasScriptArgs(content) {
		substituted, err := NewArgsSubstituter(args).SubstituteArgs(content)
		if err != nil {
			return nil, err
		}
		content = substituted
	}

	lines := strings.Split(content, "\n")

	var yamlLines []string
	promptStart := 0
	inFrontmatter := false
	foundFrontmatter := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "---" {
			if !inFrontmatter && !foundFrontmatter {
				inFrontmatter = true
				foundFrontmatter = true
				continue
			}
			if inFrontmatter {
				inFrontmatter = false
				promptStart = i + 1
				break
			}
		}
		if inFrontmatter {
			yamlLines = append(yamlLines, line)
		}
	}
	if inFrontmatter {
		return nil, fmt.Errorf("unterminated frontmatter: missing closing ---")
	}

	cfg := &Config{}
	if len(yamlLines) > 0 {
		if err := yaml.Unmarshal([]byte(strings.Join(yamlLines, "\n")), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
	}

	prompt := strings.TrimSpace(strings.Join(lines[promptStart:], "\n"))
	return &Script{Config: cfg, Prompt: prompt}, nil
}
