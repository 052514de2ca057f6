package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/stratos/parley/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key value]",
	Short: "View or modify configuration",
	Long: `View or modify parley configuration.

Configuration is stored in ~/.parley/config.yaml and can be overridden with
PARLEY_* environment variables.

Examples:
  parley config                              # View current config
  parley config ollama.model qwen2.5:14b     # Set the model
  parley config ollama.url http://host:11434 # Set the endpoint`,
	Args: cobra.RangeArgs(0, 2),
	Run: func(cmd *cobra.Command, args []string) {
		runConfig(args)
	},
}

func runConfig(args []string) {
	defer logger.Sync()

	if len(args) == 2 {
		if err := config.Set(args[0], args[1]); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Render("✓ Configuration saved"))
		fmt.Println()

		// Reload so the printout reflects what was written.
		reloaded, err := config.Load()
		if err == nil {
			cfg = reloaded
		}
	} else if len(args) == 1 {
		fmt.Println("Usage: parley config <key> <value>")
		return
	}

	printConfig()
}

func printConfig() {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Width(24)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	fmt.Println(headerStyle.Render("parley Configuration"))
	fmt.Println()

	fmt.Printf("%s %s\n", keyStyle.Render("ollama.url:"), valueStyle.Render(cfg.Ollama.URL))
	fmt.Printf("%s %s\n", keyStyle.Render("ollama.model:"), valueStyle.Render(cfg.Ollama.Model))
	fmt.Printf("%s %s\n", keyStyle.Render("ollama.timeout:"), valueStyle.Render(cfg.Ollama.Timeout.String()))
	fmt.Printf("%s %s\n", keyStyle.Render("ollama.keep_alive:"), valueStyle.Render(cfg.Ollama.KeepAlive))
	fmt.Printf("%s %d\n", keyStyle.Render("chat.pass_cap:"), cfg.Chat.PassCap)
	fmt.Printf("%s %s\n", keyStyle.Render("research.qdrant_host:"), valueStyle.Render(cfg.Research.QdrantHost))
	fmt.Printf("%s %d\n", keyStyle.Render("research.qdrant_port:"), cfg.Research.QdrantPort)
	fmt.Printf("%s %s\n", keyStyle.Render("research.collection:"), valueStyle.Render(cfg.Research.Collection))
	if cfg.Tools.SchemaPath != "" {
		fmt.Printf("%s %s\n", keyStyle.Render("tools.schema_path:"), valueStyle.Render(cfg.Tools.SchemaPath))
	}

	path, _ := config.Path()
	fmt.Println()
	fmt.Printf("%s %s\n", keyStyle.Render("Config file:"), dimStyle.Render(path))
}
