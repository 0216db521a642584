package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/aretw0/deepstock"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the Gemini models available to the configured key",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, engine *deepstock.Engine) error {
			models, err := engine.Gemini().ListModels(ctx, engine.Credential())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("NAME", "DISPLAY NAME", "ACTIONS")
			for _, m := range models {
				name := strings.TrimPrefix(m.Name, "models/")
				if name == engine.Gemini().Model() {
					name += " *"
				}
				t.Row(name, m.DisplayName, strings.Join(m.Actions, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
