package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/altinukshini/hepc-tui/internal/catalog"
	"github.com/altinukshini/hepc-tui/internal/config"
	"github.com/altinukshini/hepc-tui/internal/tui/selector"
)

func newSelectCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Interactively filter the catalog and export a selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("gh-mrva-output")
			return runSelect(cmd.Context(), e.cfg, output)
		},
	}
	cmd.Flags().String("metadata-db", "", "path to the HEPC metadata database")
	cmd.Flags().String("gh-mrva-output", "", "also write gh-mrva exports to this file")
	return cmd
}

func runSelect(ctx context.Context, cfg config.Config, output string) error {
	path := config.Resolve(cfg.MetadataDB)
	store, err := catalog.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	idx, err := store.Candidates(ctx)
	if err != nil {
		return fmt.Errorf("load candidates: %w", err)
	}
	if output != "" {
		output = config.Resolve(output)
	}

	app := selector.New(selector.Options{
		Store:        store,
		Index:        idx,
		Source:       store.Path(),
		GhMrvaOutput: output,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
