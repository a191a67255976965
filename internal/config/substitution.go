package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	envVarPattern     = regexp.MustCompile(`\$\{env://([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)
	scriptArgsPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)
)

// splitDefault splits "VAR:-default" into its parts. The default is
// optional; hasDefault distinguishes an empty default from no default.
func splitDefault(varPart string) (varName, defaultValue string, hasDefault bool) {
	if strings.Contains(varPart, ":-") {
		parts := strings.SplitN(varPart, ":-", 2)
		return parts[0], parts[1], true
	}
	return varPart, "", false
}

// substitute replaces every match of pattern in content using lookup to
// resolve variable values. Variables without a value and without a
// default accumulate into a single error.
func substitute(content string, pattern *regexp.Regexp, prefix string, lookup func(string) (string, bool)) (string, []string) {
	var missing []string

	result := pattern.ReplaceAllStringFunc(content, func(match string) string {
		varPart := strings.TrimPrefix(strings.TrimSuffix(match, "}"), prefix)
		varName, defaultValue, hasDefault := splitDefault(varPart)

		if value, ok := lookup(varName); ok {
			return value
		}
		if hasDefault {
			return defaultValue
		}
		missing = append(missing, fmt.Sprintf("%s not set in %s", varName, match))
		return match
	})

	return result, missing
}

// EnvSubstituter resolves ${env://VAR} and ${env://VAR:-default}
// references against the process environment.
type EnvSubstituter struct{}

// SubstituteEnvVars replaces environment references in content. A
// reference without a default whose variable is unset is an error.
func (e *EnvSubstituter) SubstituteEnvVars(content string) (string, error) {
	result, missing := substitute(content, envVarPattern, "${env://", func(name string) (string, bool) {
		value := os.Getenv(name)
		return value, value != ""
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("environment variable substitution failed: required environment variable %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// ArgsSubstituter resolves ${VAR} and ${VAR:-default} references against
// a script argument map supplied on the command line.
type ArgsSubstituter struct {
	args map[string]string
}

// NewArgsSubstituter returns a substituter backed by the given argument
// map.
func NewArgsSubstituter(args map[string]string) *ArgsSubstituter {
	return &ArgsSubstituter{args: args}
}

// SubstituteArgs replaces argument references in content. A reference
// without a default whose argument was not supplied is an error.
func (a *ArgsSubstituter) SubstituteArgs(content string) (string, error) {
	result, missing := substitute(content, scriptArgsPattern, "${", func(name string) (string, bool) {
		value, ok := a.args[name]
		return value, ok
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("script argument substitution failed: required argument %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// HasEnvVars reports whether content contains ${env://...} references.
func HasEnvVars(content string) bool {
	return envVarPattern.MatchString(content)
}

// HasScriptArgs reports whether content contains ${...} references.
func HasScriptArgs(content string) bool {
	return scriptArgsPattern.MatchString(content)
}
