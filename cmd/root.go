package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ramizpolic/agenthost/internal/agent"
	"github.com/ramizpolic/agenthost/internal/builtin"
	"github.com/ramizpolic/agenthost/internal/config"
	"github.com/ramizpolic/agenthost/internal/models"
	"github.com/ramizpolic/agenthost/internal/session"
	"github.com/ramizpolic/agenthost/internal/tools"
	"github.com/ramizpolic/agenthost/pkg/llm"
)

var (
	configFile       string
	modelFlag        string
	systemPromptFlag string
	promptFlag       string
	sessionFlag      string
	sessionDirFlag   string
	maxSteps         int
	messageWindow    int
	maxTokens        int
	temperatureFlag  float64
	providerAPIKey   string
	providerURL      string
	tlsSkipVerify    bool
	quietFlag        bool
	debugMode        bool
)

// scriptConfig is set by the script command to override file-based
// configuration for one run.
var scriptConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "agenthost",
	Short: "Chat with AI models that can call local tools",
	Long: `Agenthost is a CLI for conversing with LLMs from multiple providers
through one interface. Models can call built-in tools (file access,
web fetch, time) and every conversation is persisted as a resumable
session on disk.

Models are selected with the --model flag as provider:model:
  agenthost -m anthropic:claude-sonnet-4-20250514
  agenthost -m openai:gpt-4o
  agenthost -m google:gemini-2.0-flash
  agenthost -m ollama:qwen2.5:3b

Run without --prompt for an interactive chat, or with --prompt for a
single non-interactive turn.`,
}

// Root exposes the command tree for the program entrypoint.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runRoot(cmd.Context())
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is $HOME/.agenthost.yml)")
	flags.StringVarP(&modelFlag, "model", "m", "", "model to use (format: provider:model)")
	flags.StringVar(&systemPromptFlag, "system-prompt", "", "system prompt text or path to a prompt file")
	flags.StringVar(&sessionFlag, "session", "", "session ID to resume")
	flags.StringVar(&sessionDirFlag, "session-dir", "", "directory for persisted sessions")
	flags.IntVar(&maxSteps, "max-steps", 0, "maximum agent steps per message")
	flags.IntVar(&messageWindow, "message-window", 0, "number of messages to keep in context")
	flags.IntVar(&maxTokens, "max-tokens", 0, "maximum tokens per model response")
	flags.Float64Var(&temperatureFlag, "temperature", 0, "sampling temperature")
	flags.StringVar(&providerAPIKey, "provider-api-key", "", "API key for the selected provider")
	flags.StringVar(&providerURL, "provider-url", "", "base URL override for the selected provider")
	flags.BoolVar(&tlsSkipVerify, "tls-skip-verify", false, "skip TLS certificate verification")
	flags.BoolVar(&debugMode, "debug", false, "enable debug logging")

	rootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "run a single prompt and exit")
	rootCmd.Flags().BoolVar(&quietFlag, "quiet", false, "print only the final answer")
}

// loadConfig merges the config file with command line flags; flags win.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if scriptConfig != nil {
		cfg = scriptConfig
	} else {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if cfg.Model == "" {
		cfg.Model = "anthropic:claude-sonnet-4-20250514"
	}
	if systemPromptFlag != "" {
		cfg.SystemPrompt = systemPromptFlag
	}
	if promptFlag != "" {
		cfg.Prompt = promptFlag
	}
	if flagChanged("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flagChanged("message-window") {
		cfg.MessageWindow = messageWindow
	}
	if flagChanged("max-tokens") {
		cfg.MaxTokens = maxTokens
	}
	if flagChanged("temperature") {
		cfg.Temperature = temperatureFlag
	}
	if sessionDirFlag != "" {
		cfg.SessionDir = sessionDirFlag
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = config.DefaultSessionDir()
	}
	if providerAPIKey != "" {
		cfg.ProviderAPIKey = providerAPIKey
	}
	if providerURL != "" {
		cfg.ProviderURL = providerURL
	}
	if tlsSkipVerify {
		cfg.TLSSkipVerify = true
	}
	if debugMode {
		cfg.Debug = true
	}
	return cfg, nil
}

// flagChanged reports whether the user passed a flag explicitly. Numeric
// flags need this to tell an explicit zero apart from an unset flag.
func flagChanged(name string) bool {
	flag := rootCmd.PersistentFlags().Lookup(name)
	return flag != nil && flag.Changed
}

// temperatureOverride returns the sampling temperature to request, or nil
// when neither a flag nor configuration chose one. An explicit
// --temperature 0 counts as chosen.
func temperatureOverride(cfg *config.Config) *float64 {
	if flagChanged("temperature") || cfg.Temperature != 0 {
		return &cfg.Temperature
	}
	return nil
}

func setupLogging(debug bool) {
	if debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	} else {
		log.SetLevel(log.InfoLevel)
		log.SetReportCaller(false)
	}
}

func runRoot(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg.Debug)

	systemPrompt, err := config.LoadSystemPrompt(cfg.SystemPrompt)
	if err != nil {
		return err
	}

	provider, err := models.CreateProvider(ctx, &models.ProviderConfig{
		ModelString:   cfg.Model,
		APIKey:        cfg.ProviderAPIKey,
		BaseURL:       cfg.ProviderURL,
		TLSSkipVerify: cfg.TLSSkipVerify,
	})
	if err != nil {
		return fmt.Errorf("error creating provider: %w", err)
	}

	providerName, modelName := models.ParseModelString(cfg.Model)
	if !quietFlag {
		log.Info("Model loaded", "provider", providerName, "model", modelName)
	}
	if !provider.SupportsTools() {
		log.Warn("Model does not support tool calling; tools are disabled",
			"provider", providerName, "model", modelName)
	}

	registry := tools.NewRegistry()
	if err := builtin.RegisterAll(registry); err != nil {
		return fmt.Errorf("error registering tools: %w", err)
	}

	store, err := session.NewStore(cfg.SessionDir)
	if err != nil {
		return err
	}

	var sess *session.Session
	if sessionFlag != "" {
		sess, err = store.Load(sessionFlag)
		if err != nil {
			return err
		}
		if !quietFlag {
			log.Info("Session resumed", "session", sess.SessionID, "messages", len(sess.Messages))
		}
	} else {
		sess, err = store.Create(providerName, systemPrompt, nil)
		if err != nil {
			return err
		}
	}

	runner, err := agent.New(agent.Config{
		Provider:      provider,
		Registry:      registry,
		Store:         store,
		MaxSteps:      cfg.MaxSteps,
		MessageWindow: cfg.MessageWindow,
		Model:         modelName,
		MaxTokens:     cfg.MaxTokens,
		Temperature:   temperatureOverride(cfg),
	})
	if err != nil {
		return err
	}

	if cfg.Prompt != "" {
		return runOnce(ctx, runner, sess, cfg.Prompt)
	}
	return runInteractive(ctx, runner, sess, registry)
}

// runOnce handles a single non-interactive prompt.
func runOnce(ctx context.Context, runner *agent.Agent, sess *session.Session, prompt string) error {
	result, err := runner.ProcessMessage(ctx, sess, prompt)
	if err != nil {
		return err
	}
	if quietFlag {
		fmt.Println(result.FinalContent)
		return nil
	}
	return renderMarkdown(result.FinalContent)
}

var promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// runInteractive runs the chat REPL until EOF or an exit command.
func runInteractive(ctx context.Context, runner *agent.Agent, sess *session.Session, registry *tools.Registry) error {
	if !quietFlag {
		fmt.Printf("Session %s. Type /help for commands.\n\n", sess.SessionID)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> ") + " ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := handleSlashCommand(runner, sess, registry, line)
			if err != nil {
				log.Error("Command failed", "error", err)
			}
			if done {
				return nil
			}
			continue
		}

		result, err := runner.ProcessMessage(ctx, sess, line)
		if err != nil {
			log.Error("Request failed", "error", err)
			continue
		}
		if result.LoopLimitReached {
			log.Warn("Stopped at the step limit; the answer may be incomplete")
		}
		if err := renderMarkdown(result.FinalContent); err != nil {
			fmt.Println(result.FinalContent)
		}
	}
}

// handleSlashCommand dispatches REPL commands. It returns true when the
// REPL should exit.
func handleSlashCommand(runner *agent.Agent, sess *session.Session, registry *tools.Registry, line string) (bool, error) {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Println(`Commands:
  /help     show this help
  /tools    list available tools
  /history  show the conversation so far
  /clear    clear history, keeping the system prompt
  /quit     exit`)
		return false, nil
	case "/tools":
		for _, def := range registry.List() {
			fmt.Printf("  %s: %s\n", def.Name, def.Description)
		}
		return false, nil
	case "/history":
		printHistory(sess)
		return false, nil
	case "/clear":
		if err := runner.ClearHistory(sess); err != nil {
			return false, err
		}
		fmt.Println("History cleared.")
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q, try /help", line)
	}
}

func printHistory(sess *session.Session) {
	for _, msg := range sess.Messages {
		switch llm.Role(msg.Role) {
		case llm.RoleSystem:
			fmt.Printf("[system] %s\n", msg.Content)
		case llm.RoleUser:
			fmt.Printf("[you] %s\n", msg.Content)
		case llm.RoleAssistant:
			fmt.Printf("[assistant] %s\n", msg.Content)
			for _, call := range msg.ToolCalls {
				fmt.Printf("  -> called %s\n", call.Name)
			}
		case llm.RoleTool:
			for _, res := range msg.ToolResults {
				status := "ok"
				if !res.Success {
					status = "failed"
				}
				fmt.Printf("  <- %s (%s)\n", res.ToolName, status)
			}
		}
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	if width > 20 {
		width -= 20
	}
	return width
}

func renderMarkdown(content string) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.TokyoNightStyle),
		glamour.WithWordWrap(terminalWidth()),
	)
	if err != nil {
		return err
	}
	out, err := renderer.Render(content)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
