package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/altinukshini/hepc-tui/internal/config"
	"github.com/altinukshini/hepc-tui/internal/server"
)

func newServeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog as a read-only JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := e.cfg.Serve.Addr
			if f := cmd.Flags().Lookup("addr"); f.Changed {
				addr = f.Value.String()
			}
			return runServe(cmd.Context(), e.cfg, addr, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().String("metadata-db", "", "path to the HEPC metadata database")
	cmd.Flags().String("addr", "", "listen address (default from config, 127.0.0.1:8070)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, addr string, errOut io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.New(ctx, config.Resolve(cfg.MetadataDB), cfg.Serve.CacheSize)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(errOut, "Serving %s on http://%s\n", cfg.MetadataDB, addr)
	return s.Run(ctx, addr)
}
