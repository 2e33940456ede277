// Package app provides the cobra commands for the ankidb CLI.
package app

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	runner "github.com/bgunnarsson/ankidb/internal/app"
	"github.com/bgunnarsson/ankidb/internal/config"
	"github.com/bgunnarsson/ankidb/internal/logger"
)

// cli carries the state shared by every command of one root.
type cli struct {
	v   *viper.Viper
	cfg *config.Config
}

// NewRootCmd creates the root command. Each call returns an independent tree
// with its own configuration, so tests can build as many as they need.
func NewRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	config.SetDefaults(c.v)

	rootCmd := &cobra.Command{
		Use:               "ankidb",
		DisableAutoGenTag: true,
		Short:             "Read-only inspector for Anki collection files",
		Long: `ankidb opens an Anki collection (a single SQLite file) and runs read
queries against it: integer scalars, typed single columns, full result tables,
or an interactive browser.

Without a subcommand, ankidb starts the browser when stdout is a terminal and
prints the table list otherwise.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isTerminal(cmd.OutOrStdout()) {
				return runner.RunInteractive(cmd.Context(), c.cfg, logger.Get())
			}
			return runner.RunTables(cmd.Context(), cmd.OutOrStdout(), c.cfg, logger.Get())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "Path to the collection file")
	flags.String("driver", "", `SQLite driver: "sqlite" (pure Go) or "sqlite3" (cgo)`)
	flags.Int("max-width", 0, "Maximum display width of a table column")
	flags.Bool("debug", false, "Enable debug logging")
	flags.StringP("config", "c", "", "Path to a config file (default $XDG_CONFIG_HOME/ankidb/config.yaml)")
	c.bindFlag(flags, config.KeyDB, "db")
	c.bindFlag(flags, config.KeyDriver, "driver")
	c.bindFlag(flags, config.KeyMaxWidth, "max-width")
	c.bindFlag(flags, config.KeyDebug, "debug")
	c.bindFlag(flags, config.KeyConfig, "config")

	rootCmd.AddCommand(
		c.newTablesCmd(),
		c.newScalarCmd(),
		c.newColumnCmd(),
		c.newQueryCmd(),
		c.newBrowseCmd(),
	)

	return rootCmd
}

func (c *cli) bindFlag(flags *pflag.FlagSet, key, name string) {
	if err := c.v.BindPFlag(key, flags.Lookup(name)); err != nil {
		logger.Get().Errorf("Error binding %s flag: %v", name, err)
	}
}

func (c *cli) loadConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg
	logger.Initialize(cfg.Debug, cfg.UnstructuredLogs)
	logger.Get().Debugw("configuration loaded", "db", cfg.DB, "driver", cfg.Driver)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
