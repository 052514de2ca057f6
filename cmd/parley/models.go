package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List local models and their tool support",
	Long: `List the models available on the Ollama server. Models detected as
supporting tool calls are marked; for the rest parley falls back to plain
chat.`,
	Run: func(cmd *cobra.Command, args []string) {
		runModels()
	},
}

func runModels() {
	defer logger.Sync()

	client := newOllamaClient()
	ctx := context.Background()

	models, err := client.ListModels(ctx)
	if err != nil {
		fmt.Printf("Error listing models: %v\n", err)
		os.Exit(1)
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
	toolStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	fmt.Println(headerStyle.Render("Local Models"))
	fmt.Println()

	if len(models) == 0 {
		fmt.Println(dimStyle.Render("  No models found. Pull one with: ollama pull qwen2.5:7b"))
		return
	}

	for _, m := range models {
		marker := dimStyle.Render("       ")
		if client.SupportsTools(ctx, m.Name) {
			marker = toolStyle.Render("[tools]")
		}
		current := " "
		if m.Name == cfg.Ollama.Model {
			current = "*"
		}
		fmt.Printf("  %s %s %s\n", current, marker, nameStyle.Render(m.Name))
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("  * current model. Switch with: parley config ollama.model <name>"))
}
