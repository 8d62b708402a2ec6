package catalog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStoreLifecycle exercises AddDataset/GetDataset/ListDatasets/
// SaveMetadata/LoadMetadata against a real Postgres instance. It is
// skipped unless CATALOG_TEST_DATABASE_URL is set, since the pack carries
// no SQL mocking library for internal/catalog to build against instead.
func TestStoreLifecycle(t *testing.T) {
	url := os.Getenv("CATALOG_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CATALOG_TEST_DATABASE_URL not set; skipping catalog integration test")
	}

	ctx := context.Background()
	store, err := New(ctx, url)
	require.NoError(t, err)
	defer store.Close()

	now := time.Now().UTC()
	d := Dataset{
		ID: "ds_test1", UUID: "uuid-1", Name: "sales", SourcePath: "gs://bucket/sales",
		Format: "csv", DatasetPath: "datasets/ds_test1", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.AddDataset(ctx, d))

	got, err := store.GetDataset(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, d.Name, got.Name)

	require.Error(t, store.AddDataset(ctx, d))

	_, err = store.GetDataset(ctx, "does-not-exist")
	require.Error(t, err)

	require.NoError(t, store.SaveMetadata(ctx, d.ID,
		[]DatasetFile{{DatasetID: d.ID, Filename: "part-0.csv", StoragePath: "gs://bucket/ds_test1/part-0.csv"}},
		[]DatasetColumn{{DatasetID: d.ID, Name: "amount", ArrowType: "Float64", Statistics: map[string]string{"min": "0"}}},
		[]DatasetStatistic{{DatasetID: d.ID, StatKey: "row_count", StatValue: "100"}},
	))

	// Idempotent statistics upsert: the second save with a different value
	// must leave the latter value in the catalog.
	require.NoError(t, store.SaveMetadata(ctx, d.ID, nil, nil,
		[]DatasetStatistic{{DatasetID: d.ID, StatKey: "row_count", StatValue: "200"}},
	))

	meta, err := store.LoadMetadata(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, meta.Files, 1)
	require.Len(t, meta.Columns, 1)
	require.Len(t, meta.Statistics, 1)
	require.Equal(t, "200", meta.Statistics[0].StatValue)

	list, err := store.ListDatasets(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, list)
}
