package queryrt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataquery/engine/internal/catalog"
	"github.com/dataquery/engine/internal/sqlengine"
)

// newTestRuntime builds a Runtime around a real in-process SQL kernel and
// registers a tiny CSV-backed dataset directly against the kernel,
// bypassing the object-store fetch Register performs in production so
// these tests don't need a live bucket.
func newTestRuntime(t *testing.T, datasetID string) *Runtime {
	t.Helper()

	engine, err := sqlengine.NewEngine()
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	csvPath := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id\n1\n2\n3\n4\n5\n"), 0o644))
	require.NoError(t, engine.RegisterTable(context.Background(), datasetID, []string{csvPath}, "csv"))

	return &Runtime{
		registered: map[string]bool{datasetID: true},
		engine:     engine,
	}
}

func TestExecuteNoLimitRequestedReturnsAllRows(t *testing.T) {
	rt := newTestRuntime(t, "ds_1")

	_, rec, err := rt.Execute(context.Background(), "ds_1", "SELECT id FROM ds_1", 0)
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(5), rec.NumRows())
}

func TestExecuteAppliesPositiveLimit(t *testing.T) {
	rt := newTestRuntime(t, "ds_1")

	_, rec, err := rt.Execute(context.Background(), "ds_1", "SELECT id FROM ds_1", 2)
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(2), rec.NumRows())
}

func TestExecuteDoesNotOverrideExplicitLimit(t *testing.T) {
	rt := newTestRuntime(t, "ds_1")

	_, rec, err := rt.Execute(context.Background(), "ds_1", "SELECT id FROM ds_1 LIMIT 3", 1)
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(3), rec.NumRows())
}

func TestExecuteBindsBaseAliasPerCallWithoutCrossDatasetLeakage(t *testing.T) {
	rt := newTestRuntime(t, "ds_1")

	csvPath := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id\n10\n20\n"), 0o644))
	require.NoError(t, rt.engine.RegisterTable(context.Background(), "ds_2", []string{csvPath}, "csv"))
	rt.registered["ds_2"] = true

	_, rec1, err := rt.Execute(context.Background(), "ds_1", "SELECT id FROM base", 0)
	require.NoError(t, err)
	defer rec1.Release()
	require.Equal(t, int64(5), rec1.NumRows())

	_, rec2, err := rt.Execute(context.Background(), "ds_2", "SELECT id FROM base", 0)
	require.NoError(t, err)
	defer rec2.Release()
	require.Equal(t, int64(2), rec2.NumRows())
}

func TestIsRegisteredReflectsDirectlyLoadedTables(t *testing.T) {
	rt := newTestRuntime(t, "ds_1")

	require.True(t, rt.IsRegistered("ds_1"))
	require.False(t, rt.IsRegistered("ds_unknown"))
}

func TestRegisterIsIdempotentForAnAlreadyLoadedDataset(t *testing.T) {
	rt := newTestRuntime(t, "ds_1")

	err := rt.Register(context.Background(), catalog.DatasetMetadata{Dataset: catalog.Dataset{ID: "ds_1"}})
	require.NoError(t, err)
}

func TestSchemaReportsNullability(t *testing.T) {
	rt := newTestRuntime(t, "ds_1")

	cols, err := rt.Schema(context.Background(), "ds_1")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	require.Equal(t, "id", cols[0].Name)
	require.True(t, cols[0].Nullable)
}

func TestSchemaRejectsUnregisteredDataset(t *testing.T) {
	rt := newTestRuntime(t, "ds_1")

	_, err := rt.Schema(context.Background(), "ds_unknown")
	require.Error(t, err)
}

func TestHealthCheckSucceeds(t *testing.T) {
	rt := newTestRuntime(t, "ds_1")
	require.NoError(t, rt.HealthCheck(context.Background()))
}
