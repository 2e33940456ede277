package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	runner "github.com/bgunnarsson/ankidb/internal/app"
	"github.com/bgunnarsson/ankidb/internal/db/sqlite"
	"github.com/bgunnarsson/ankidb/internal/logger"
)

func (c *cli) newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables and views with their row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runner.RunTables(cmd.Context(), cmd.OutOrStdout(), c.cfg, logger.Get())
		},
	}
}

func (c *cli) newScalarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scalar <sql>",
		Short: "Print the integer in the first column of the first row",
		Long: `Run a query that returns one row with one integer column and print it.
A query that returns no rows is an error, unlike a row holding 0.`,
		Example: `  ankidb --db collection.anki2 scalar "SELECT count(*) FROM cards WHERE queue = 0"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.RunScalar(cmd.Context(), cmd.OutOrStdout(), c.cfg, logger.Get(), strings.Join(args, " "))
		},
	}
}

func (c *cli) newColumnCmd() *cobra.Command {
	var (
		typeName string
		index    int
	)
	cmd := &cobra.Command{
		Use:   "column <sql>",
		Short: "Print one column of every row, read as a given type",
		Example: `  ankidb --db collection.anki2 column "SELECT id, flds FROM notes ORDER BY id" --index 1
  ankidb --db collection.anki2 column "SELECT factor FROM cards" --type float64`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := sqlite.ParseKind(typeName)
			if err != nil {
				return fmt.Errorf("--type: %w", err)
			}
			return runner.RunColumn(cmd.Context(), cmd.OutOrStdout(), c.cfg, logger.Get(), kind, index, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "text", "Column type: text, int64, int32, float32 or float64")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "Zero-based column index in the result")
	return cmd
}

func (c *cli) newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query [sql]",
		Short: "Print the full result of a query as a table",
		Long:  `Print every column of every row. Without SQL, list the tables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.RunQuery(cmd.Context(), cmd.OutOrStdout(), c.cfg, logger.Get(), strings.Join(args, " "))
		},
	}
}

func (c *cli) newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the collection interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runner.RunInteractive(cmd.Context(), c.cfg, logger.Get())
		},
	}
}
