package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/bgunnarsson/ankidb/internal/config"
	"github.com/bgunnarsson/ankidb/internal/db"
	"github.com/bgunnarsson/ankidb/internal/db/sqlite"
	"github.com/bgunnarsson/ankidb/internal/print"
)

// TableCount is a table name with its row count.
type TableCount struct {
	Name string
	Rows int64
}

// TableCounts counts the rows of every table and view in the deck.
func TableCounts(ctx context.Context, conn *sqlite.Conn) ([]TableCount, error) {
	names, err := conn.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TableCount, 0, len(names))
	for _, name := range names {
		n, err := sqlite.QueryScalar(ctx, conn, "SELECT count(*) FROM "+sqlite.QuoteIdent(name))
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", name, err)
		}
		out = append(out, TableCount{Name: name, Rows: n})
	}
	return out, nil
}

// RunTables prints every table with its row count.
func RunTables(ctx context.Context, w io.Writer, cfg *config.Config, log *zap.SugaredLogger) error {
	conn, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	counts, err := TableCounts(ctx, conn)
	if err != nil {
		return err
	}

	rows := &db.Rows{Columns: []db.Column{{Name: "table"}, {Name: "rows"}}}
	for _, c := range counts {
		rows.Data = append(rows.Data, db.Row{c.Name, c.Rows})
	}
	print.RenderTable(w, rows, print.Options{MaxWidth: cfg.MaxWidth})
	return nil
}

// RunScalar prints the single integer a query returns.
func RunScalar(ctx context.Context, w io.Writer, cfg *config.Config, log *zap.SugaredLogger, query string) error {
	conn, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	n, err := sqlite.QueryScalar(ctx, conn, query)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, n)
	return nil
}

// RunColumn prints one column of a query, read as kind.
func RunColumn(ctx context.Context, w io.Writer, cfg *config.Config, log *zap.SugaredLogger, kind sqlite.Kind, column int, query string) error {
	conn, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	values, err := sqlite.QueryColumnKind(ctx, conn, kind, query, column)
	if err != nil {
		return err
	}
	print.RenderColumn(w, fmt.Sprintf("%d:%s", column, kind), values, print.Options{MaxWidth: cfg.MaxWidth})
	return nil
}

// RunQuery prints a full result set. An empty query lists the tables.
func RunQuery(ctx context.Context, w io.Writer, cfg *config.Config, log *zap.SugaredLogger, query string) error {
	if query == "" {
		// default behaviour: list tables
		query = "select name from sqlite_master where type = 'table' order by name;"
	}

	conn, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return err
	}

	print.RenderTable(w, rows, print.Options{MaxWidth: cfg.MaxWidth})
	return nil
}
