package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramizpolic/agenthost/internal/config"
)

var scriptCmd = &cobra.Command{
	Use:   "script <script-file>",
	Short: "Execute a script file with YAML frontmatter configuration",
	Long: `Execute a script file containing YAML frontmatter with configuration
followed by a prompt. Frontmatter keys match the config file keys.

Example script file:
---
model: "anthropic:claude-sonnet-4-20250514"
max-steps: 10
---
List the files in ${directory} and tell me about them.

Command line flags override frontmatter settings.

Variables in the script are substituted with ${variable} syntax and
passed using --args:variable value:

  agenthost script myscript.sh --args:directory /tmp`,
	Args: cobra.ExactArgs(1),
	FParseErrWhitelist: cobra.FParseErrWhitelist{
		UnknownFlags: true, // --args:* flags are parsed by hand
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := config.ParseScriptFile(args[0], parseScriptArgs(os.Args[1:]))
		if err != nil {
			return fmt.Errorf("failed to parse script file: %w", err)
		}
		if script.Prompt == "" && promptFlag == "" {
			return fmt.Errorf("script file %s contains no prompt", args[0])
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg.Merge(script.Config)
		if cfg.Prompt == "" {
			cfg.Prompt = script.Prompt
		}

		scriptConfig = cfg
		defer func() { scriptConfig = nil }()

		return runRoot(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(scriptCmd)

	scriptCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "override the prompt from the script file")
	scriptCmd.Flags().BoolVar(&quietFlag, "quiet", false, "print only the final answer")
}

// parseScriptArgs extracts --args:name value pairs from the raw command
// line. Cobra cannot parse dynamically named flags, so this walks the
// arguments after the script file itself.
func parseScriptArgs(args []string) map[string]string {
	variables := make(map[string]string)

	scriptPos := -1
	for i, arg := range args {
		if arg == "script" {
			scriptPos = i
			break
		}
	}
	if scriptPos == -1 {
		return variables
	}

	for i := scriptPos + 1; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--args:") {
			continue
		}
		name := strings.TrimPrefix(arg, "--args:")
		if name == "" {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			variables[name] = args[i+1]
			i++
		} else {
			variables[name] = ""
		}
	}
	return variables
}
