package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // register cgo driver as "sqlite3"
	"go.uber.org/zap"
	sqlite3 "modernc.org/sqlite" // register pure-Go driver as "sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/bgunnarsson/ankidb/internal/db"
)

const (
	// DriverModernc is the pure-Go driver and the default.
	DriverModernc = "sqlite"
	// DriverCgo is github.com/mattn/go-sqlite3.
	DriverCgo = "sqlite3"
)

const openTimeout = 5 * time.Second

// Conn is an open deck file. It is not safe for concurrent use.
type Conn struct {
	path    string
	driver  string
	db      *sqlx.DB
	log     *zap.SugaredLogger
	cursors atomic.Int64
}

var _ db.DB = (*Conn)(nil)

type options struct {
	driver string
	log    *zap.SugaredLogger
}

// Option configures Open.
type Option func(*options)

// WithDriver selects the database/sql driver, DriverModernc or DriverCgo.
func WithDriver(name string) Option {
	return func(o *options) {
		if name != "" {
			o.driver = name
		}
	}
}

// WithLogger sets the logger that receives connection lifecycle records.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Open opens an existing database file for reading and writing. The file is
// never created; a missing, unreadable or non-SQLite file yields an *OpenError.
func Open(path string, opts ...Option) (*Conn, error) {
	o := options{driver: DriverModernc, log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&o)
	}

	if path == "" {
		return nil, &OpenError{Path: path, Err: errors.New("empty path")}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	dsn, err := buildDSN(o.driver, path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	sqldb, err := sqlx.Open(o.driver, dsn)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	// One native connection: the pool stands in for a single handle.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	// SQLite opens lazily; reading the schema forces the header to be parsed.
	var n int64
	if err := sqldb.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master`).Scan(&n); err != nil {
		_ = sqldb.Close()
		o.log.Debugw("database open failed", "path", path, "driver", o.driver, "code", errorCode(err))
		return nil, &OpenError{Path: path, Err: err}
	}

	o.log.Debugw("database opened", "path", path, "driver", o.driver, "objects", n)
	return &Conn{path: path, driver: o.driver, db: sqldb, log: o.log}, nil
}

// uriPath escapes the characters SQLite would read as URI syntax in a path.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// buildDSN returns a URI that forbids creating the file and uses binary
// collation only.
func buildDSN(driver, path string) (string, error) {
	uri := "file:" + uriPath.Replace(path)
	switch driver {
	case DriverModernc:
		return uri + "?mode=rw&_pragma=foreign_keys(1)", nil
	case DriverCgo:
		return uri + "?mode=rw&_foreign_keys=1", nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// errorCode extracts the primary SQLite result code, or 0 for non-driver errors.
func errorCode(err error) int {
	var sqliteErr *sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() & 0xff
	}
	return 0
}

// IsNotADatabase reports whether err came from opening a file that is not SQLite.
func IsNotADatabase(err error) bool {
	return errorCode(err) == sqlite3lib.SQLITE_NOTADB
}

// Close releases the handle. Closing a closed Conn does nothing.
func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	c.log.Infow("database closed", "path", c.path, "closed", err == nil)
	return err
}

// DB exposes the native handle for callers that need transactions or other
// lower-level access.
func (c *Conn) DB() (*sqlx.DB, error) {
	if !c.IsOpen() {
		return nil, ErrUseAfterClose
	}
	return c.db, nil
}

func (c *Conn) IsOpen() bool { return c != nil && c.db != nil }

func (c *Conn) Path() string { return c.path }

func (c *Conn) Driver() string { return c.driver }

// OpenCursors returns the number of cursors that have not been released.
func (c *Conn) OpenCursors() int { return int(c.cursors.Load()) }

func (c *Conn) ListTables(ctx context.Context) ([]string, error) {
	// Tables and views, hiding internal sqlite_% objects.
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY lower(name);
	`
	return QueryColumn(ctx, c, Text, q, 0)
}

func (c *Conn) DescribeTable(ctx context.Context, table string) (cols []db.Column, err error) {
	q := fmt.Sprintf("PRAGMA table_info(%s);", QuoteIdent(table))
	cur, err := c.cursor(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := cur.Close(); cerr != nil && err == nil {
			err = &QueryError{SQL: q, Err: cerr}
		}
	}()

	// cid, name, type, notnull, dflt_value, pk
	for cur.Next() {
		name, err := cur.String(1)
		if err != nil {
			return nil, err
		}
		ctype, err := cur.String(2)
		if err != nil {
			return nil, err
		}
		cols = append(cols, db.Column{Name: name, Type: strings.ToUpper(ctype)})
	}
	return cols, cur.Err()
}

func (c *Conn) Query(ctx context.Context, sqlStr string) (out *db.Rows, err error) {
	cur, err := c.cursor(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := cur.Close(); cerr != nil && err == nil {
			err = &QueryError{SQL: sqlStr, Err: cerr}
		}
	}()

	header, err := cur.Header()
	if err != nil {
		return nil, err
	}

	var data []db.Row
	for cur.Next() {
		raw, err := cur.Values()
		if err != nil {
			return nil, err
		}
		data = append(data, db.Row(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	return &db.Rows{
		Columns: header,
		Data:    data,
	}, nil
}

// QuoteIdent quotes a table or column name for interpolation into SQL.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
