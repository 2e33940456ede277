package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/bgunnarsson/ankidb/internal/db"
)

// Cursor is a forward-only pass over the rows of one query. It belongs to the
// call that opened it and must be closed exactly once before that call returns.
type Cursor struct {
	conn   *Conn
	sql    string
	rows   *sqlx.Rows
	cols   []string
	dest   []any
	sink   sql.RawBytes
	closed bool
}

func (c *Conn) cursor(ctx context.Context, query string) (*Cursor, error) {
	if !c.IsOpen() {
		return nil, ErrUseAfterClose
	}

	rows, err := c.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, &QueryError{SQL: query, Err: err}
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, &QueryError{SQL: query, Err: err}
	}

	c.cursors.Add(1)
	return &Cursor{
		conn: c,
		sql:  query,
		rows: rows,
		cols: cols,
		dest: make([]any, len(cols)),
	}, nil
}

// Next advances to the next row. It returns false when the rows are exhausted
// or the driver failed; Err tells the two apart.
func (c *Cursor) Next() bool { return c.rows.Next() }

func (c *Cursor) Err() error {
	if err := c.rows.Err(); err != nil {
		return &QueryError{SQL: c.sql, Err: err}
	}
	return nil
}

// Close releases the cursor. Only the first call has an effect.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.conn.cursors.Add(-1)
	return c.rows.Close()
}

func (c *Cursor) Columns() []string { return append([]string(nil), c.cols...) }

// Header returns the result columns with their declared types.
func (c *Cursor) Header() ([]db.Column, error) {
	colTypes, err := c.rows.ColumnTypes()
	if err != nil {
		return nil, &QueryError{SQL: c.sql, Err: err}
	}
	header := make([]db.Column, len(c.cols))
	for i := range c.cols {
		header[i] = db.Column{
			Name: c.cols[i],
			Type: strings.ToUpper(colTypes[i].DatabaseTypeName()),
		}
	}
	return header, nil
}

// Values returns every column of the current row as the driver reports it.
func (c *Cursor) Values() ([]any, error) {
	raw := make([]any, len(c.cols))
	ptrs := make([]any, len(c.cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, &QueryError{SQL: c.sql, Err: err}
	}
	return raw, nil
}

func (c *Cursor) String(column int) (string, error)   { return get[string](c, column) }
func (c *Cursor) Float32(column int) (float32, error) { return get[float32](c, column) }
func (c *Cursor) Float64(column int) (float64, error) { return get[float64](c, column) }

// Int64 reads column as an integer. REAL values are truncated toward zero and
// saturate at the int64 bounds; numeric text is parsed.
func (c *Cursor) Int64(column int) (int64, error) {
	var raw any
	if err := c.scanAt(column, &raw); err != nil {
		return 0, err
	}
	n, err := toInt64(raw)
	if err != nil {
		return 0, &QueryError{SQL: c.sql, Err: err}
	}
	return n, nil
}

// Int32 is Int64 narrowed to 32 bits. Values outside the int32 range fail
// rather than wrap.
func (c *Cursor) Int32(column int) (int32, error) {
	n, err := c.Int64(column)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, &QueryError{SQL: c.sql, Err: fmt.Errorf("value %d overflows int32", n)}
	}
	return int32(n), nil
}

// get reads one column of the current row. NULL reads as the zero value.
func get[T any](c *Cursor, column int) (T, error) {
	var v sql.Null[T]
	if err := c.scanAt(column, &v); err != nil {
		var zero T
		return zero, err
	}
	return v.V, nil
}

// scanAt scans column into dst and discards the rest of the row.
func (c *Cursor) scanAt(column int, dst any) error {
	if column < 0 || column >= len(c.cols) {
		return &QueryError{
			SQL: c.sql,
			Err: fmt.Errorf("%w: %d (result has %d columns)", ErrColumnIndexOutOfRange, column, len(c.cols)),
		}
	}
	for i := range c.dest {
		c.dest[i] = &c.sink
	}
	c.dest[column] = dst
	if err := c.rows.Scan(c.dest...); err != nil {
		return &QueryError{SQL: c.sql, Err: err}
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return x, nil
	case float64:
		return truncate(x), nil
	case string:
		return parseInt(x)
	case []byte:
		return parseInt(string(x))
	default:
		return 0, fmt.Errorf("cannot read %T as an integer", v)
	}
}

// truncate converts f the way SQLite casts REAL to INTEGER.
func truncate(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= float64(math.MaxInt64):
		return math.MaxInt64
	case f <= float64(math.MinInt64):
		return math.MinInt64
	}
	return int64(f)
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return truncate(f), nil
	}
	return 0, fmt.Errorf("text %q is not numeric", s)
}
