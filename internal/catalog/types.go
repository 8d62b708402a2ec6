// Package catalog is the Postgres-backed dataset catalog (C3): dataset
// records, their file manifests, inferred column metadata, and free-form
// statistics. It is grounded on the Rust original's database.rs (the
// DatabaseManager's add_dataset/save_metadata/load_metadata operations)
// reworked onto the teacher pack's pgx/v5 idiom, taken from other_examples'
// bencoepp-bib postgres store (pool-holding Store struct, New(ctx, ...)
// constructor, pool.Ping verification).
package catalog

import "time"

// Dataset is the root catalog entry for a registered dataset, matching
// spec.md §3's DatasetEntry field-for-field.
type Dataset struct {
	ID           string
	UUID         string
	Name         string
	Description  string
	SourcePath   string
	Format       string
	SizeBytes    int64
	RowCount     int64
	Tags         []string
	DatasetPath  string
	MetadataPath string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DatasetFile is one file that makes up a dataset's data, as copied into
// the managed object store during ingestion, matching spec.md §3's
// DatasetFile.
type DatasetFile struct {
	DatasetID   string
	Filename    string
	StoragePath string
	SizeBytes   int64
	RowCount    int64
	CreatedAt   time.Time
}

// DatasetColumn is one inferred column in a dataset's schema, along with
// any statistics collected for it (stored as a JSON object column, the
// analog of DatasetColumnModel.statistics: serde_json::Value, and held
// here as a string-to-string map, so only flat string values round-trip),
// matching spec.md §3's ColumnMetadata.
type DatasetColumn struct {
	DatasetID   string
	Name        string
	ArrowType   string
	Nullable    bool
	Description string
	Statistics  map[string]string
}

// DatasetStatistic is a single named scalar statistic at the dataset
// level (row_count, total_bytes, and so on), upserted on conflict.
type DatasetStatistic struct {
	DatasetID string
	StatKey   string
	StatValue string
}

// DatasetMetadata is the full join of a dataset with its files, columns,
// and statistics, matching load_metadata's four-table join in database.rs.
type DatasetMetadata struct {
	Dataset    Dataset
	Files      []DatasetFile
	Columns    []DatasetColumn
	Statistics []DatasetStatistic
}
