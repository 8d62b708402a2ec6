package sqlengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataquery/engine/internal/apperr"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine()
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestRegisterTableAndQueryCSV(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "widgets.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,price\nbolt,1.50\nnut,0.75\n"), 0o644))

	require.NoError(t, e.RegisterTable(ctx, "widgets", []string{path}, "csv"))

	_, rec, err := e.Query(ctx, "SELECT name, price FROM widgets ORDER BY price")
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(2), rec.NumRows())
}

func TestColumnsReflectsRegisteredSchema(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "widgets.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,price\nbolt,1.50\n"), 0o644))
	require.NoError(t, e.RegisterTable(ctx, "widgets", []string{path}, "csv"))

	cols, err := e.Columns(ctx, "widgets")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	require.Equal(t, "name", cols[0].Name)
	require.Equal(t, "price", cols[1].Name)
}

func TestColumnsRejectsUnknownTable(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Columns(context.Background(), "nope")
	require.Error(t, err)
}

func TestRegisterTableRejectsInvalidIdentifier(t *testing.T) {
	e := newTestEngine(t)
	err := e.RegisterTable(context.Background(), "bad name; drop table", []string{"/tmp/x.csv"}, "csv")
	require.Error(t, err)
}

func TestHasLimit(t *testing.T) {
	require.True(t, HasLimit("SELECT * FROM t LIMIT 5"))
	require.True(t, HasLimit("select * from t limit 5"))
	require.False(t, HasLimit("SELECT * FROM t"))
}

func TestBindBaseAliasRewritesWholeWordOnly(t *testing.T) {
	require.Equal(t, "SELECT * FROM ds_1", BindBaseAlias("SELECT * FROM base", "ds_1"))
	require.Equal(t, "database", BindBaseAlias("database", "ds_1"))
}

func TestQueryInvalidSQLReturnsInvalidSQLQueryError(t *testing.T) {
	e := newTestEngine(t)
	_, _, err := e.Query(context.Background(), "NOT VALID SQL")
	var invalidSQL *apperr.InvalidSQLQueryError
	require.ErrorAs(t, err, &invalidSQL)
}
