package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/spf13/cobra"

	"github.com/altinukshini/hepc-tui/internal/config"
	"github.com/altinukshini/hepc-tui/internal/search"
	"github.com/altinukshini/hepc-tui/internal/transcript"
)

func newTranscriptsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "List and search stored workflow output",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTranscripts(e.cfg)
			if err != nil {
				return err
			}
			return listTranscripts(store, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	})

	searchCmd := &cobra.Command{
		Use:   "search PATTERN",
		Short: "Print the stored output lines that match PATTERN",
		Example: `  hepc-tui transcripts search --failed Error
  hepc-tui transcripts search --regex --session mirva-session-4 '^\$ gh-mrva'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := search.Query{Pattern: args[0]}
			q.IsRegex, _ = cmd.Flags().GetBool("regex")
			q.CaseSensitive, _ = cmd.Flags().GetBool("case-sensitive")
			q.Session, _ = cmd.Flags().GetString("session")
			q.Step, _ = cmd.Flags().GetInt("step")
			q.FailedOnly, _ = cmd.Flags().GetBool("failed")

			store, err := openTranscripts(e.cfg)
			if err != nil {
				return err
			}
			return searchTranscripts(store, q, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	searchCmd.Flags().Bool("regex", false, "treat PATTERN as a regular expression")
	searchCmd.Flags().Bool("case-sensitive", false, "match case")
	searchCmd.Flags().String("session", "", "only search this session")
	searchCmd.Flags().Int("step", 0, "only search this step (1-7)")
	searchCmd.Flags().Bool("failed", false, "only search steps that failed")
	cmd.AddCommand(searchCmd)

	return cmd
}

func openTranscripts(cfg config.Config) (*transcript.Store, error) {
	return transcript.New(config.Resolve(cfg.Transcript.Dir), cfg.Transcript.MaxSizeMB, cfg.Transcript.MaxAge)
}

func listTranscripts(store *transcript.Store, out, errOut io.Writer) error {
	entries, err := store.ListEntries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(errOut, "No transcripts in %s\n", store.Dir())
		return nil
	}

	t := term.FromEnv()
	isTTY := t.IsTerminalOutput()
	tp := tableprinter.New(out, isTTY, 120)
	tp.AddHeader([]string{"Session", "Steps", "Query", "Size (KB)", "Updated"})
	for _, e := range entries {
		steps := ""
		for i, s := range e.Steps {
			if i > 0 {
				steps += ","
			}
			steps += strconv.Itoa(s)
		}
		query := ""
		if e.QueryPath != "" {
			query = filepath.Base(e.QueryPath)
		}
		tp.AddField(e.Session)
		tp.AddField(steps)
		tp.AddField(query)
		tp.AddField(strconv.FormatInt((e.Size+1023)/1024, 10))
		tp.AddField(e.LastModified.Format(time.DateTime))
		tp.EndRow()
	}
	return tp.Render()
}

func searchTranscripts(store *transcript.Store, q search.Query, out, errOut io.Writer) error {
	docs, err := search.Documents(store, q.Session)
	if err != nil {
		return err
	}
	results, err := search.New().Search(docs, q)
	if err != nil {
		return err
	}
	for _, m := range results.Matches {
		fmt.Fprintf(out, "%s step %d:%d: %s\n", m.Session, m.Step, m.Line, m.Content)
	}
	fmt.Fprintf(errOut, "%d matches in %d sessions\n", results.TotalCount, len(results.SessionCounts))
	return nil
}
