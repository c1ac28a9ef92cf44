package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/altinukshini/hepc-tui/internal/config"
	"github.com/altinukshini/hepc-tui/internal/logging"
)

// env carries the loaded configuration to the subcommands.
type env struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "hepc-tui",
		Short: "Select CodeQL databases from a HEPC catalog and drive MRVA jobs",
		Long: "hepc-tui filters the HEPC metadata catalog, exports gh-mrva selections\n" +
			"and walks through the multi-repository variant analysis workflow.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd)
		},
	}
	root.PersistentFlags().String("config", "", "config file (default hepc-tui.toml in . or $HOME)")
	root.PersistentFlags().Bool("debug", false, "write debug entries to the log file")

	sel := newSelectCmd(e)
	root.AddCommand(
		sel,
		newQueryCmd(e),
		newWorkflowCmd(e),
		newServeCmd(e),
		newTranscriptsCmd(e),
		newConfigCmd(e),
		newVersionCmd(),
	)

	// Without a subcommand the selector starts.
	root.Flags().AddFlagSet(sel.Flags())
	root.RunE = sel.RunE
	return root
}

func (e *env) load(cmd *cobra.Command) error {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(viper.New(), file)
	if err != nil {
		return err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Debug = true
	}
	if f := cmd.Flags().Lookup("metadata-db"); f != nil && f.Changed {
		cfg.MetadataDB = f.Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logging.Init(config.Resolve(cfg.Log.File), cfg.Log.MaxSizeMB, cfg.Log.Debug); err != nil {
		return err
	}
	logging.Debugf("hepc-tui %s: %s", version, cmd.CommandPath())
	e.cfg = cfg
	return nil
}
