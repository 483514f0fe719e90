package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/dialog"
)

func newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and the dialog graph it produces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(io.Discard)
			if err != nil {
				return err
			}
			graph, err := dialog.BuildGraph(cfg)
			if err != nil {
				return fmt.Errorf("dialog graph: %w", err)
			}
			printSummary(cmd.OutOrStdout(), cfg, graph)
			return nil
		},
	}
}

func printSummary(w io.Writer, cfg *config.Config, graph *dialog.Graph) {
	fmt.Fprintf(w, "config:      %s\n", configPath)
	fmt.Fprintf(w, "mode:        %s\n", cfg.Telegram.Mode)
	fmt.Fprintf(w, "storage:     %s\n", cfg.Storage.Type)
	fmt.Fprintf(w, "steps:       %d\n", len(graph.Steps()))
	fmt.Fprintf(w, "categories:  %d\n", len(cfg.Keyphrases.IssuesCategories))
	fmt.Fprintf(w, "streets:     %d\n", len(cfg.Keyphrases.SupportedStreets))
	fmt.Fprintf(w, "areas:       %d\n", len(cfg.Keyphrases.ProblemAreas))
	fmt.Fprintln(w, "ok")
}
