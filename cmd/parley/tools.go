package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List available tools",
	Long: `List the tools parley exposes to tool-capable models.

Examples:
  parley tools           # List all tools
  parley tools --verbose # Show parameter schemas`,
	Run: func(cmd *cobra.Command, args []string) {
		runTools()
	},
}

func runTools() {
	defer logger.Sync()

	registry := buildRegistry(newOllamaClient())

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	toolStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	paramStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	fmt.Println(headerStyle.Render("Available Tools"))
	fmt.Println()

	for _, c := range registry.All() {
		fmt.Printf("  %s\n", toolStyle.Render("◆ "+c.Name()))
		fmt.Printf("    %s\n", descStyle.Render(c.Description()))

		if verbose {
			schema := c.Schema()
			if props, ok := schema.Function.Parameters["properties"].(map[string]any); ok {
				for name, raw := range props {
					fmt.Printf("      %s\n", paramStyle.Render(name))
					if p, ok := raw.(map[string]any); ok {
						if desc, ok := p["description"].(string); ok {
							fmt.Printf("        %s\n", descStyle.Render(desc))
						}
					}
				}
			}
		}
		fmt.Println()
	}

	if !verbose {
		fmt.Println(dimStyle.Render("  Use --verbose for parameter details"))
	}
}
