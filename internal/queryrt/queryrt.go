// Package queryrt adapts internal/sqlengine into the lazy-registration,
// schema-inference, and aliasing behavior spec.md's C5 describes,
// mirroring the Rust original's engine.rs + datafusion_engine.rs split:
// AnalysisEngine orchestrates registration and execution, while
// DataFusionEngine owns the registered_buckets guard and the `base`
// alias.
package queryrt

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/apache/arrow/go/v15/arrow"

	"github.com/dataquery/engine/internal/apperr"
	"github.com/dataquery/engine/internal/catalog"
	"github.com/dataquery/engine/internal/objectstore"
	"github.com/dataquery/engine/internal/obslog"
	"github.com/dataquery/engine/internal/sqlengine"
)

// ColumnInfo is a single column's external (schema-describing) shape,
// matching spec.md §4.4's (name, canonical_type_string, nullable,
// optional_description_from_field_metadata) projection; it carries no
// statistics, which callers fill in as an empty map.
type ColumnInfo struct {
	Name        string
	ArrowType   string
	Nullable    bool
	Description string
}

// Runtime wraps sqlengine with the registration/aliasing behavior C5
// requires. registered mirrors DataFusionEngine's
// Arc<RwLock<HashSet<String>>> dedup guard: re-registering an
// already-registered dataset is a no-op, guarded by a sync.RWMutex so
// concurrent reads (is registered?) do not block one another. The mutex
// is not reader-preferring: once a Register call waits for the lock, new
// readers wait behind it.
// Unlike the kernel's old in-process Arrow tables, a registered dataset
// is a permanent DuckDB view over its staged files — `base` is never
// stored here, only resolved per call (see Execute).
type Runtime struct {
	mu         sync.RWMutex
	registered map[string]bool
	engine     *sqlengine.Engine
	registry   *objectstore.Registry
	store      *catalog.Store
}

// New constructs a Runtime bound to the given object store registry and
// catalog, used to fetch a dataset's files on first reference, and opens
// the in-process SQL kernel.
func New(registry *objectstore.Registry, store *catalog.Store) (*Runtime, error) {
	engine, err := sqlengine.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("start sql engine: %w", err)
	}
	return &Runtime{
		registered: make(map[string]bool),
		engine:     engine,
		registry:   registry,
		store:      store,
	}, nil
}

// Close releases the underlying SQL kernel connection.
func (rt *Runtime) Close() error {
	return rt.engine.Close()
}

// IsRegistered reports whether datasetID has already been loaded into the
// in-process kernel, matching registered_buckets.contains(&dataset_id).
func (rt *Runtime) IsRegistered(datasetID string) bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.registered[datasetID]
}

// Register stages a dataset's files to local disk and registers a
// permanent DuckDB view over them keyed by the dataset id, matching
// register_dataset's ListingOptions-based format detection. Staged files
// are left in place for the life of the process: the view reads them
// lazily on every query, so deleting them after registration would break
// every subsequent query against the dataset.
func (rt *Runtime) Register(ctx context.Context, meta catalog.DatasetMetadata) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.registered[meta.Dataset.ID] {
		return nil
	}

	obslog.Infof("[QUERYRT] registering dataset %s (format=%s)", meta.Dataset.ID, meta.Dataset.Format)

	loc, err := objectstore.ParseLocation(meta.Dataset.SourcePath)
	if err != nil {
		return err
	}
	store, err := objectstore.Open(ctx, loc.Scheme, rt.registry)
	if err != nil {
		return err
	}

	files, err := stageFiles(ctx, store, loc.Bucket, loc.Key, meta)
	if err != nil {
		return &apperr.InternalError{Cause: fmt.Errorf("stage dataset %s: %w", meta.Dataset.ID, err)}
	}

	if err := rt.engine.RegisterTable(ctx, meta.Dataset.ID, files, meta.Dataset.Format); err != nil {
		return &apperr.InternalError{Cause: fmt.Errorf("register dataset %s: %w", meta.Dataset.ID, err)}
	}

	rt.registered[meta.Dataset.ID] = true
	return nil
}

// stageFiles copies every file in a dataset to a local temp file so the
// SQL kernel's table functions (which need random filesystem access, not
// a streamed reader) can read them, mirroring the original's pattern of
// handing DataFusion a local ListingTable path.
func stageFiles(ctx context.Context, store objectstore.Store, bucket, prefix string, meta catalog.DatasetMetadata) ([]string, error) {
	if len(meta.Files) == 0 {
		return nil, fmt.Errorf("dataset has no files")
	}

	paths := make([]string, 0, len(meta.Files))
	for _, f := range meta.Files {
		p, err := stageOne(ctx, store, bucket, joinKey(prefix, f.Filename), f.Filename)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func stageOne(ctx context.Context, store objectstore.Store, bucket, key, filename string) (string, error) {
	r, err := store.Get(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	defer r.Close()

	tmp, err := os.CreateTemp("", "queryrt-*-"+sanitizeFilename(filename))
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, r); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}

// sanitizeFilename strips a dataset filename down to a bare base name
// with no path separators, since os.CreateTemp's pattern argument is
// appended literally after the random segment.
func sanitizeFilename(name string) string {
	base := path.Base(name)
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, base)
}

func joinKey(prefix, filename string) string {
	if prefix == "" {
		return filename
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix + filename
	}
	return prefix + "/" + filename
}

// Schema returns the external column shape of a registered dataset,
// matching get_table_schema's Arrow-type-to-string projection.
func (rt *Runtime) Schema(ctx context.Context, datasetID string) ([]ColumnInfo, error) {
	rt.mu.RLock()
	registered := rt.registered[datasetID]
	rt.mu.RUnlock()
	if !registered {
		return nil, &apperr.DatasetNotFoundError{DatasetID: datasetID}
	}

	cols, err := rt.engine.Columns(ctx, datasetID)
	if err != nil {
		return nil, &apperr.InternalError{Cause: err}
	}

	out := make([]ColumnInfo, len(cols))
	for i, c := range cols {
		out[i] = ColumnInfo{
			Name:      c.Name,
			ArrowType: sqlengine.DuckDBTypeToString(c.DuckType),
			Nullable:  c.Nullable,
		}
	}
	return out, nil
}

// Execute runs sql against a specific dataset, matching execute_query's
// limit-injection and alias-binding. `base` is rewritten to datasetID's
// registered view name fresh on every call (sqlengine.BindBaseAlias),
// never stored on the Runtime, so two concurrent calls against different
// datasets never race on a shared alias. A LIMIT is appended the way
// execute_query appends " LIMIT <n>" only when a positive limit was
// supplied and the query text doesn't already contain one
// (case-insensitively); limit <= 0 means "no limit requested".
func (rt *Runtime) Execute(ctx context.Context, datasetID, sql string, limit int64) (*arrow.Schema, arrow.Record, error) {
	rt.mu.RLock()
	registered := rt.registered[datasetID]
	rt.mu.RUnlock()
	if !registered {
		return nil, nil, &apperr.DatasetNotFoundError{DatasetID: datasetID}
	}

	effective := sqlengine.BindBaseAlias(sql, datasetID)
	if limit > 0 && !sqlengine.HasLimit(effective) {
		effective = fmt.Sprintf("%s LIMIT %d", effective, limit)
	}

	return rt.engine.Query(ctx, effective)
}

// HealthCheck runs a trivial round-trip query through the kernel,
// matching datafusion_engine.rs's health_check running "SELECT 1".
func (rt *Runtime) HealthCheck(ctx context.Context) error {
	_, rec, err := rt.engine.Query(ctx, "SELECT 1")
	if err != nil {
		return &apperr.InternalError{Cause: err}
	}
	rec.Release()
	return nil
}
