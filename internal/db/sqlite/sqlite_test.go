package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newDeck creates a database file in a temp dir and runs stmts against it.
func newDeck(t *testing.T, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collection.anki2")
	fixture := sqlx.MustConnect(DriverModernc, path)
	for _, stmt := range stmts {
		fixture.MustExec(stmt)
	}
	require.NoError(t, fixture.Close())
	return path
}

func openDeck(t *testing.T, stmts ...string) *Conn {
	t.Helper()
	conn, err := Open(newDeck(t, stmts...))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpen(t *testing.T) {
	t.Parallel()

	path := newDeck(t, `CREATE TABLE cards (id INTEGER PRIMARY KEY)`)
	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()

	assert.True(t, conn.IsOpen())
	assert.Equal(t, path, conn.Path())
	assert.Equal(t, DriverModernc, conn.Driver())
	assert.Zero(t, conn.OpenCursors())
}

// newNamedDeck writes a deck under a plain name and renames it, so the
// fixture never depends on how a driver parses name.
func newNamedDeck(t *testing.T, name string, stmts ...string) string {
	t.Helper()
	src := newDeck(t, stmts...)
	dst := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.Rename(src, dst))
	return dst
}

// requireCgoDriver skips when mattn/go-sqlite3 was built without cgo.
func requireCgoDriver(t *testing.T) {
	t.Helper()
	handle, err := sql.Open(DriverCgo, ":memory:")
	if err == nil {
		err = handle.Ping()
		_ = handle.Close()
	}
	if err != nil {
		t.Skipf("cgo sqlite driver unavailable: %v", err)
	}
}

func TestOpen_URIMetacharactersInPath(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{DriverModernc, DriverCgo} {
		for _, name := range []string{"My Deck #2.anki2", "deck%20a.anki2", "what?.anki2", "a%3fb#c?d.anki2"} {
			t.Run(driver+"/"+name, func(t *testing.T) {
				t.Parallel()
				if driver == DriverCgo {
					requireCgoDriver(t)
				}

				path := newNamedDeck(t, name,
					`CREATE TABLE cards (id INTEGER PRIMARY KEY)`,
					`INSERT INTO cards (id) VALUES (1), (2), (3)`,
				)
				conn, err := Open(path, WithDriver(driver))
				require.NoError(t, err)

				n, err := QueryScalar(context.Background(), conn, `SELECT count(*) FROM cards`)
				require.NoError(t, err)
				assert.Equal(t, int64(3), n)
				require.NoError(t, conn.Close())

				entries, err := os.ReadDir(filepath.Dir(path))
				require.NoError(t, err)
				require.Len(t, entries, 1, "no sibling file may be created")
				assert.Equal(t, name, entries[0].Name())
			})
		}
	}
}

func TestOpen_CgoDriver(t *testing.T) {
	t.Parallel()
	requireCgoDriver(t)
	ctx := context.Background()

	core, logs := observer.New(zapcore.InfoLevel)
	path := newDeck(t,
		`CREATE TABLE notes (id INTEGER PRIMARY KEY, flds TEXT, factor REAL)`,
		`INSERT INTO notes (id, flds, factor) VALUES (1, 'a', 2.5), (2, 'b', 1.5)`,
	)
	conn, err := Open(path, WithDriver(DriverCgo), WithLogger(zap.New(core).Sugar()))
	require.NoError(t, err)
	assert.Equal(t, DriverCgo, conn.Driver())

	var fk int64
	handle, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, handle.Get(&fk, `PRAGMA foreign_keys`))
	assert.Equal(t, int64(1), fk)

	n, err := QueryScalar(ctx, conn, `SELECT count(*) FROM notes`)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = QueryScalar(ctx, conn, `SELECT id FROM notes WHERE id > 9`)
	assert.ErrorIs(t, err, ErrEmptyResult)

	names, err := QueryColumn(ctx, conn, Text, `SELECT flds FROM notes ORDER BY id`, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	factors, err := QueryColumn(ctx, conn, Int64, `SELECT factor FROM notes ORDER BY id`, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, factors)

	_, err = QueryColumn(ctx, conn, Text, `SELECT nope FROM notes`, 0)
	var qErr *QueryError
	assert.ErrorAs(t, err, &qErr)
	assert.Zero(t, conn.OpenCursors())

	require.NoError(t, conn.Close())
	require.Len(t, logs.FilterMessage("database closed").All(), 1)

	_, err = Open(filepath.Join(t.TempDir(), "missing.anki2"), WithDriver(DriverCgo))
	var openErr *OpenError
	assert.ErrorAs(t, err, &openErr)

	corrupt := filepath.Join(t.TempDir(), "corrupt.anki2")
	require.NoError(t, os.WriteFile(corrupt, []byte(strings.Repeat("garbage", 200)), 0o600))
	_, err = Open(corrupt, WithDriver(DriverCgo))
	assert.ErrorAs(t, err, &openErr)
}

func TestOpen_Failures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.anki2")
	require.NoError(t, os.WriteFile(corrupt, []byte(strings.Repeat("this is not a deck\n", 64)), 0o600))

	tests := []struct {
		name string
		path string
		opts []Option
	}{
		{"empty path", "", nil},
		{"missing file", filepath.Join(dir, "missing.anki2"), nil},
		{"directory", dir, nil},
		{"not a database", corrupt, nil},
		{"unknown driver", corrupt, []Option{WithDriver("postgres")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn, err := Open(tt.path, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, conn)

			var openErr *OpenError
			require.ErrorAs(t, err, &openErr)
			assert.Equal(t, tt.path, openErr.Path)
		})
	}
}

func TestOpen_NotADatabaseIsClassified(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corrupt.anki2")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("garbage", 200)), 0o600))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, IsNotADatabase(err), "got %v", err)
	assert.False(t, IsNotADatabase(errors.New("other")))
}

func TestOpen_DoesNotCreateFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.anki2")
	_, err := Open(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestClose_IdempotentAndLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	path := newDeck(t, `CREATE TABLE t (id INTEGER)`)
	conn, err := Open(path, WithLogger(zap.New(core).Sugar()))
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.False(t, conn.IsOpen())

	closed := logs.FilterMessage("database closed").All()
	require.Len(t, closed, 1)
	fields := closed[0].ContextMap()
	assert.Equal(t, path, fields["path"])
	assert.Equal(t, true, fields["closed"])
}

func TestDB(t *testing.T) {
	t.Parallel()

	conn := openDeck(t,
		`CREATE TABLE notes (id INTEGER PRIMARY KEY, flds TEXT)`,
		`INSERT INTO notes (flds) VALUES ('front'), ('back')`,
	)

	handle, err := conn.DB()
	require.NoError(t, err)

	tx, err := handle.Beginx()
	require.NoError(t, err)
	var n int
	require.NoError(t, tx.Get(&n, `SELECT count(*) FROM notes`))
	require.NoError(t, tx.Rollback())
	assert.Equal(t, 2, n)

	require.NoError(t, conn.Close())
	_, err = conn.DB()
	assert.ErrorIs(t, err, ErrUseAfterClose)
}

func TestListTables(t *testing.T) {
	t.Parallel()

	conn := openDeck(t,
		`CREATE TABLE revlog (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE Cards (id INTEGER PRIMARY KEY)`,
		`CREATE VIEW due AS SELECT id FROM cards`,
	)

	tables, err := conn.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cards", "due", "revlog"}, tables)
	assert.Zero(t, conn.OpenCursors())
}

func TestDescribeTable(t *testing.T) {
	t.Parallel()

	conn := openDeck(t, `CREATE TABLE cards (id integer PRIMARY KEY, due int NOT NULL, factor real, "odd ""name""" text)`)

	cols, err := conn.DescribeTable(context.Background(), "cards")
	require.NoError(t, err)
	require.Len(t, cols, 4)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "INTEGER", cols[0].Type)
	assert.Equal(t, "REAL", cols[2].Type)
	assert.Equal(t, `odd "name"`, cols[3].Name)
	assert.Zero(t, conn.OpenCursors())
}

func TestQuery(t *testing.T) {
	t.Parallel()

	conn := openDeck(t,
		`CREATE TABLE cards (id INTEGER PRIMARY KEY, due INTEGER, question TEXT)`,
		`INSERT INTO cards (id, due, question) VALUES (1, 10, 'q1'), (2, NULL, 'q2')`,
	)

	rows, err := conn.Query(context.Background(), `SELECT id, due, question FROM cards ORDER BY id`)
	require.NoError(t, err)
	require.Len(t, rows.Columns, 3)
	assert.Equal(t, "id", rows.Columns[0].Name)
	require.Len(t, rows.Data, 2)
	assert.EqualValues(t, 1, rows.Data[0][0])
	assert.EqualValues(t, 10, rows.Data[0][1])
	assert.Nil(t, rows.Data[1][1])
	assert.EqualValues(t, "q2", rows.Data[1][2])
	assert.Zero(t, conn.OpenCursors())

	_, err = conn.Query(context.Background(), `SELECT * FROM nope`)
	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Zero(t, conn.OpenCursors())
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"cards"`, QuoteIdent("cards"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
}
