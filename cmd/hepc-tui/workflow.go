package main

import (
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/altinukshini/hepc-tui/internal/config"
	"github.com/altinukshini/hepc-tui/internal/logging"
	"github.com/altinukshini/hepc-tui/internal/transcript"
	"github.com/altinukshini/hepc-tui/internal/tui/driver"
	"github.com/altinukshini/hepc-tui/internal/workflow"
)

func newWorkflowCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Walk through the MRVA workflow against the gh-mrva container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _ := cmd.Flags().GetString("session")
			return runWorkflow(e.cfg, session)
		},
	}
	cmd.Flags().String("metadata-db", "", "path to the HEPC metadata database")
	cmd.Flags().String("session", "", "session number (default mirva-session-<timestamp>)")
	return cmd
}

func runWorkflow(cfg config.Config, session string) error {
	settings := workflow.FromConfig(cfg, time.Now())
	if session != "" {
		settings.Session = session
	}

	store, err := transcript.New(config.Resolve(cfg.Transcript.Dir), cfg.Transcript.MaxSizeMB, cfg.Transcript.MaxAge)
	if err != nil {
		logging.Warnf("workflow: transcripts disabled: %v", err)
		store = nil
	} else if err := store.Evict(); err != nil {
		logging.Warnf("workflow: evict transcripts: %v", err)
	}

	exe, err := os.Executable()
	if err != nil {
		logging.Warnf("workflow: locate executable: %v", err)
	}

	app := driver.New(driver.Options{
		Settings:    settings,
		Transcripts: store,
		Executable:  exe,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
