package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/spf13/cobra"

	"github.com/altinukshini/hepc-tui/internal/catalog"
	"github.com/altinukshini/hepc-tui/internal/config"
	"github.com/altinukshini/hepc-tui/internal/export"
	"github.com/altinukshini/hepc-tui/internal/filter"
	"github.com/altinukshini/hepc-tui/internal/model"
)

func newQueryCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one catalog query and print a table or an export document",
		Example: `  hepc-tui query --eq git_owner=acme --regex primary_language=^c
  hepc-tui query --regex tool_version=^2\.15 --export b > gh-mrva-selection.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eqs, _ := cmd.Flags().GetStringArray("eq")
			regexes, _ := cmd.Flags().GetStringArray("regex")
			st, err := parseFilter(eqs, regexes)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("export")
			return runQuery(cmd.Context(), e.cfg, st, format, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().String("metadata-db", "", "path to the HEPC metadata database")
	cmd.Flags().StringArray("eq", nil, "exact match, column=value (repeatable)")
	cmd.Flags().StringArray("regex", nil, "case-insensitive regex, column=pattern (repeatable)")
	cmd.Flags().String("export", "", "print an export document instead of a table: a (mirva-list) or b (gh-mrva)")
	return cmd
}

// parseFilter builds a filter from column=value arguments.
func parseFilter(eqs, regexes []string) (filter.State, error) {
	st := filter.State{}
	for _, arg := range regexes {
		col, pattern, err := splitAssignment(arg)
		if err != nil {
			return filter.State{}, fmt.Errorf("--regex: %w", err)
		}
		st = st.WithPattern(col, pattern, nil)
	}
	for _, arg := range eqs {
		col, value, err := splitAssignment(arg)
		if err != nil {
			return filter.State{}, fmt.Errorf("--eq: %w", err)
		}
		st = st.WithExact(col, value)
	}
	return st, nil
}

func splitAssignment(arg string) (model.Column, string, error) {
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		return "", "", fmt.Errorf("%q is not column=value", arg)
	}
	col := model.Column(strings.TrimSpace(name))
	if !col.Valid() {
		return "", "", fmt.Errorf("%w: %q", filter.ErrUnknownColumn, name)
	}
	return col, value, nil
}

func runQuery(ctx context.Context, cfg config.Config, st filter.State, format string, out, errOut io.Writer) error {
	var f export.Format
	if format != "" {
		var err error
		if f, err = export.ParseFormat(format); err != nil {
			return err
		}
	}

	store, err := catalog.Open(ctx, config.Resolve(cfg.MetadataDB))
	if err != nil {
		return err
	}
	defer store.Close()

	rs, err := store.Query(ctx, st)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if f != "" {
		doc, err := export.Render(f, rs.Records)
		if errors.Is(err, export.ErrEmptyResultSet) {
			fmt.Fprintln(errOut, "Warning: No databases match the current filters; nothing exported.")
			return err
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", doc)
		return err
	}

	if rs.Len() == 0 {
		fmt.Fprintln(errOut, "No matching databases found.")
		return nil
	}
	return printTable(out, rs.Records)
}

func printTable(out io.Writer, records []model.Record) error {
	t := term.FromEnv()
	isTTY := t.IsTerminalOutput()
	width := 120
	if isTTY {
		if w, _, err := t.Size(); err == nil && w > 0 {
			width = w
		}
	}

	tp := tableprinter.New(out, isTTY, width)
	tp.AddHeader([]string{"Owner", "Repo", "Language", "Tool Ver", "Size (MB)", "Path"})
	for _, r := range records {
		tp.AddField(r.GitOwner)
		tp.AddField(r.GitRepo)
		tp.AddField(r.PrimaryLanguage)
		tp.AddField(r.ToolVersion)
		tp.AddField(strconv.FormatFloat(r.SizeMB(), 'f', 1, 64))
		tp.AddField(r.ResultURL)
		tp.EndRow()
	}
	return tp.Render()
}
