package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/stratos/parley/internal/agent"
	"github.com/stratos/parley/internal/config"
	"github.com/stratos/parley/internal/ollama"
	"github.com/stratos/parley/internal/research"
	"github.com/stratos/parley/internal/session"
	"github.com/stratos/parley/internal/tools"
	"github.com/stratos/parley/internal/ui"
	"go.uber.org/zap"
)

var (
	flagEndpoint string
	flagModel    string
	verbose      bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Streaming terminal chat for local Ollama models",
	Long: `parley is a terminal chat client for local Ollama models with
streaming replies and tool calling.

Usage:
  parley            Start an interactive chat
  parley models     List local models and their tool support
  parley tools      List available tools
  parley config     View or edit configuration
  parley version    Show version info`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// Flags override file and environment.
		if flagEndpoint != "" {
			cfg.Ollama.URL = flagEndpoint
		}
		if flagModel != "" {
			cfg.Ollama.Model = flagModel
		}

		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		runChat()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "Ollama API URL")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Model to chat with")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// newOllamaClient builds the shared Ollama client from the loaded config.
func newOllamaClient() *ollama.Client {
	return ollama.NewClient(ollama.Config{
		BaseURL: cfg.Ollama.URL,
		Timeout: cfg.Ollama.Timeout,
		Logger:  logger,
	})
}

// buildRegistry assembles the tool registry. The research backend is
// optional; when it cannot be reached the search tool still registers and
// reports its errors through tool results.
func buildRegistry(client *ollama.Client) *tools.Registry {
	registry := tools.NewRegistry()

	backend, err := research.NewBackend(research.Config{
		QdrantHost:        cfg.Research.QdrantHost,
		QdrantPort:        cfg.Research.QdrantPort,
		Collection:        cfg.Research.Collection,
		EmbeddingEndpoint: cfg.Research.EmbeddingEndpoint,
		TopK:              cfg.Research.TopK,
		MinScore:          cfg.Research.MinScore,
	}, logger)
	if err != nil {
		logger.Warn("research backend unavailable", zap.Error(err))
	} else {
		registry.MustRegister(tools.NewSearchWeb(backend))
	}

	registry.MustRegister(tools.NewSleepAgent())
	registry.MustRegister(tools.NewOptimizePrompt(agent.NewCompleter(client, cfg.Ollama.Model)))

	if cfg.Tools.SchemaPath != "" {
		if err := registry.LoadSchemaOverrides(cfg.Tools.SchemaPath); err != nil {
			logger.Warn("tool schema overrides not applied", zap.Error(err))
		}
	}

	return registry
}

// runChat starts the interactive TUI.
func runChat() {
	defer logger.Sync()

	client := newOllamaClient()

	connectStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	fmt.Print(connectStyle.Render("Connecting to Ollama... "))
	if err := client.Probe(context.Background()); err != nil {
		fmt.Println(errorStyle.Render("✗"))
		fmt.Println()
		printConnectionHelp()
		os.Exit(1)
	}
	fmt.Println(successStyle.Render("✓"))

	toolsEnabled := client.SupportsTools(context.Background(), cfg.Ollama.Model)
	fmt.Printf("Using model: %s (tools: %v)\n\n", cfg.Ollama.Model, toolsEnabled)

	registry := buildRegistry(client)
	dispatcher := tools.NewDispatcher(registry, logger)

	titles := make(chan string, 1)
	runner := agent.NewRunner(client, dispatcher, registry.Schemas(), agent.Config{
		Model:        cfg.Ollama.Model,
		SystemPrompt: cfg.Chat.SystemPrompt,
		PassCap:      cfg.Chat.PassCap,
		Options: &ollama.Options{
			Temperature: cfg.Chat.Sampling.Temperature,
			NumCtx:      cfg.Chat.Sampling.NumCtx,
			NumPredict:  cfg.Chat.Sampling.NumPredict,
			TopK:        cfg.Chat.Sampling.TopK,
			TopP:        cfg.Chat.Sampling.TopP,
		},
		KeepAlive:    cfg.Ollama.KeepAlive,
		ToolsEnabled: toolsEnabled,
		OnTitle: func(title string) {
			select {
			case titles <- title:
			default:
			}
		},
		Logger: logger,
	})

	model := ui.NewModel(ui.Deps{
		Store:        session.NewStore(),
		Runner:       runner,
		ModelName:    cfg.Ollama.Model,
		Titles:       titles,
		ToolNames:    registry.List(),
		ToolsEnabled: toolsEnabled,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running UI: %v\n", err)
		os.Exit(1)
	}
}

// printConnectionHelp displays instructions for connecting to Ollama.
func printConnectionHelp() {
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))

	fmt.Println(errorStyle.Render("Could not connect to Ollama at " + cfg.Ollama.URL))
	fmt.Println()
	fmt.Println(helpStyle.Render("Make sure Ollama is running:"))
	fmt.Println(cmdStyle.Render("  ollama serve"))
	fmt.Println()
	fmt.Println(helpStyle.Render("And pull the required model:"))
	fmt.Println(cmdStyle.Render("  ollama pull " + cfg.Ollama.Model))
	fmt.Println()
	fmt.Println(helpStyle.Render("Or configure a different endpoint:"))
	fmt.Println(cmdStyle.Render("  parley config ollama.url http://your-server:11434"))
}
