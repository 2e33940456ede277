package sqlite

import (
	"context"
	"fmt"
)

// QueryScalar runs a query expected to return one row and one integer column.
// Rows after the first are ignored. A query returning no rows fails with
// ErrEmptyResult, which is distinct from a row holding zero.
func QueryScalar(ctx context.Context, conn *Conn, query string) (n int64, err error) {
	cur, err := conn.cursor(ctx, query)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := cur.Close(); cerr != nil && err == nil {
			err = &QueryError{SQL: query, Err: cerr}
		}
	}()

	if !cur.Next() {
		if err := cur.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: no result for query: %s", ErrEmptyResult, query)
	}
	return cur.Int64(0)
}

// QueryColumn runs query and collects the given column of every row as T, in
// row order. No rows yields an empty slice and no error.
//
//	names, err := sqlite.QueryColumn(ctx, conn, sqlite.Text, `SELECT name FROM models ORDER BY id`, 0)
func QueryColumn[T any](ctx context.Context, conn *Conn, typ Type[T], query string, column int) (out []T, err error) {
	if !conn.IsOpen() {
		return nil, ErrUseAfterClose
	}
	if typ.get == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, typ.kind)
	}

	cur, err := conn.cursor(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := cur.Close(); cerr != nil && err == nil {
			err = &QueryError{SQL: query, Err: cerr}
		}
	}()

	out = []T{}
	for cur.Next() {
		v, err := typ.get(cur, column)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// QueryColumnKind is QueryColumn for a Kind only known at run time, such as
// one parsed from user input. Values are boxed in row order.
func QueryColumnKind(ctx context.Context, conn *Conn, kind Kind, query string, column int) ([]any, error) {
	// Checked here as well so a closed Conn wins over an unknown kind.
	if !conn.IsOpen() {
		return nil, ErrUseAfterClose
	}
	switch kind {
	case KindText:
		return boxed(QueryColumn(ctx, conn, Text, query, column))
	case KindInt64:
		return boxed(QueryColumn(ctx, conn, Int64, query, column))
	case KindInt32:
		return boxed(QueryColumn(ctx, conn, Int32, query, column))
	case KindFloat32:
		return boxed(QueryColumn(ctx, conn, Float32, query, column))
	case KindFloat64:
		return boxed(QueryColumn(ctx, conn, Float64, query, column))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}
}

func boxed[T any](vals []T, err error) ([]any, error) {
	if err != nil {
		return nil, err
	}
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out, nil
}
