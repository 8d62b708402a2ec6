// Package ingest implements dataset ingestion from an external object
// store path into the service's managed bucket and catalog, the Go analog
// of the Rust original's dataset_manager.rs::add_dataset_from_external_path.
package ingest

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dataquery/engine/internal/apperr"
	"github.com/dataquery/engine/internal/catalog"
	"github.com/dataquery/engine/internal/objectstore"
	"github.com/dataquery/engine/internal/obslog"
)

// Manager drives ingestion: classifying the source, copying files into
// the managed bucket, and persisting the catalog entry.
type Manager struct {
	registry *objectstore.Registry
	store    *catalog.Store
}

// New constructs a Manager bound to the given object store registry and
// catalog store.
func New(registry *objectstore.Registry, store *catalog.Store) *Manager {
	return &Manager{registry: registry, store: store}
}

// AddDatasetFromExternalPath classifies sourcePath as a single file or a
// directory prefix, copies every file it names into the managed bucket
// (a server-side copy when source and managed bucket share a backend,
// otherwise or when that copy fails a buffered streaming upload), detects the dataset's format when not given explicitly,
// and persists the resulting catalog.Dataset, matching
// dataset_manager.rs's add_dataset_from_external_path end to end.
func (m *Manager) AddDatasetFromExternalPath(ctx context.Context, name, sourcePath, description string, tags []string, explicitFormat string) (catalog.Dataset, error) {
	loc, err := objectstore.ParseLocation(sourcePath)
	if err != nil {
		return catalog.Dataset{}, err
	}

	store, err := objectstore.Open(ctx, loc.Scheme, m.registry)
	if err != nil {
		return catalog.Dataset{}, err
	}

	var filenames []string
	if objectstore.IsFilePath(loc.Key) {
		filenames = []string{path.Base(loc.Key)}
	} else {
		entries, err := store.List(ctx, loc.Bucket, loc.Key)
		if err != nil {
			return catalog.Dataset{}, err
		}
		for _, e := range entries {
			if e.IsDir {
				continue
			}
			name := strings.TrimPrefix(e.Name, ensureTrailingSlash(loc.Key))
			if !objectstore.IsFilePath(name) {
				continue
			}
			filenames = append(filenames, name)
		}
		if len(filenames) == 0 {
			return catalog.Dataset{}, &apperr.ConfigError{Reason: fmt.Sprintf("no files found under %s", sourcePath)}
		}
	}

	datasetID := fmt.Sprintf("ds_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	datasetUUID := uuid.NewString()
	datasetPath := fmt.Sprintf("datasets/%s", datasetID)

	managed, err := m.registry.GCS(ctx)
	if err != nil {
		return catalog.Dataset{}, err
	}

	files := make([]catalog.DatasetFile, 0, len(filenames))
	now := time.Now().UTC()
	for _, filename := range filenames {
		srcKey := joinKey(loc.Key, filename, objectstore.IsFilePath(loc.Key))
		dstKey := path.Join(datasetPath, filename)

		if err := copyOrStream(ctx, store, managed, loc.Bucket, srcKey, m.registry.ManagedBucket, dstKey); err != nil {
			return catalog.Dataset{}, err
		}
		files = append(files, catalog.DatasetFile{
			DatasetID:   datasetID,
			Filename:    filename,
			StoragePath: fmt.Sprintf("gs://%s/%s", m.registry.ManagedBucket, dstKey),
			CreatedAt:   now,
		})
	}

	format := explicitFormat
	if format == "" {
		format = detectFormat(filenames)
	}

	dataset := catalog.Dataset{
		ID:           datasetID,
		UUID:         datasetUUID,
		Name:         name,
		Description:  description,
		SourcePath:   fmt.Sprintf("gs://%s/%s", m.registry.ManagedBucket, datasetPath),
		Format:       format,
		Tags:         tags,
		DatasetPath:  datasetPath,
		MetadataPath: fmt.Sprintf("%s/_metadata.json", datasetPath),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.store.AddDataset(ctx, dataset); err != nil {
		return catalog.Dataset{}, err
	}
	// Columns start empty; the RPC server's GetMetadata fills them in
	// from the kernel-inferred schema the first time it is called.
	if err := m.store.SaveMetadata(ctx, datasetID, files, nil, nil); err != nil {
		return catalog.Dataset{}, err
	}

	obslog.Infof("[INGEST] added dataset %s (%d files, format=%s)", datasetID, len(files), format)
	return dataset, nil
}

// ListDatasets returns every catalog dataset, matching
// dataset_manager.rs's list_datasets passthrough to the database layer.
func (m *Manager) ListDatasets(ctx context.Context) ([]catalog.Dataset, error) {
	return m.store.ListDatasets(ctx)
}

// GetDataset fetches a single catalog dataset by id.
func (m *Manager) GetDataset(ctx context.Context, id string) (catalog.Dataset, error) {
	return m.store.GetDataset(ctx, id)
}

// GetMetadata loads a dataset's full file/column metadata.
func (m *Manager) GetMetadata(ctx context.Context, id string) (catalog.DatasetMetadata, error) {
	return m.store.LoadMetadata(ctx, id)
}

func copyOrStream(ctx context.Context, src, dst objectstore.Store, srcBucket, srcKey, dstBucket, dstKey string) error {
	obslog.Tracef("[INGEST] copy %s/%s -> %s/%s", srcBucket, srcKey, dstBucket, dstKey)

	if src == dst {
		if err := src.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey); err == nil {
			return nil
		}
	}

	// Fall back to a streaming read-then-write, matching storage.rs's
	// buffered multipart fallback when a direct server-side copy fails
	// or the source lives on a different backend than the destination.
	r, err := src.Get(ctx, srcBucket, srcKey)
	if err != nil {
		return &apperr.IOError{Op: "ingest get", Cause: err}
	}
	defer r.Close()

	if err := dst.PutMultipart(ctx, dstBucket, dstKey, r); err != nil {
		return &apperr.IOError{Op: "ingest put", Cause: err}
	}
	return nil
}

func detectFormat(filenames []string) string {
	for _, f := range filenames {
		if strings.HasSuffix(f, ".parquet") {
			return "parquet"
		}
	}
	for _, f := range filenames {
		if strings.HasSuffix(f, ".json") || strings.HasSuffix(f, ".jsonl") || strings.HasSuffix(f, ".ndjson") {
			return "json"
		}
	}
	return "csv"
}

func ensureTrailingSlash(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

func joinKey(prefix, filename string, isFilePath bool) string {
	if isFilePath {
		return prefix
	}
	return ensureTrailingSlash(prefix) + filename
}
