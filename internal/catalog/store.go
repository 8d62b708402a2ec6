package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dataquery/engine/internal/apperr"
	"github.com/dataquery/engine/internal/obslog"
)

// Store is the Postgres-backed catalog, holding a single pgxpool.Pool the
// way bencoepp-bib's postgres.Store holds one, constructed with New and
// verified with Ping before use.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL, verifies the connection with Ping (matching
// the teacher pack's New(ctx, cfg, ...) -> pool.Ping(ctx) pattern), and
// applies embedded migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &Store{pool: pool}

	if err := ApplyMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const datasetColumns = `id, uuid, name, description, source_path, format, size_bytes, row_count,
	tags, dataset_path, metadata_path, created_at, updated_at`

func scanDataset(row pgx.Row) (Dataset, error) {
	var d Dataset
	err := row.Scan(&d.ID, &d.UUID, &d.Name, &d.Description, &d.SourcePath, &d.Format,
		&d.SizeBytes, &d.RowCount, &d.Tags, &d.DatasetPath, &d.MetadataPath,
		&d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// AddDataset inserts a new root dataset row, matching database.rs's
// add_dataset (a single INSERT; duplicate ids fail with apperr.ConfigError,
// matching "fails with ConfigError on duplicate id").
func (s *Store) AddDataset(ctx context.Context, d Dataset) error {
	obslog.Tracef("[PG] INSERT INTO datasets (id=%s)", d.ID)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO datasets (id, uuid, name, description, source_path, format, size_bytes,
			row_count, tags, dataset_path, metadata_path, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		d.ID, d.UUID, d.Name, d.Description, d.SourcePath, d.Format, d.SizeBytes,
		d.RowCount, d.Tags, d.DatasetPath, d.MetadataPath, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &apperr.ConfigError{Reason: fmt.Sprintf("dataset %s already exists", d.ID)}
		}
		return &apperr.ConfigError{Reason: fmt.Sprintf("add dataset: %v", err)}
	}
	return nil
}

// GetDataset fetches a single dataset row, returning
// apperr.DatasetNotFoundError when absent (matching get_dataset's
// Option<Dataset> collapsed onto a typed error for RPC consumers).
func (s *Store) GetDataset(ctx context.Context, id string) (Dataset, error) {
	obslog.Tracef("[PG] SELECT * FROM datasets WHERE id=%s", id)
	row := s.pool.QueryRow(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE id = $1`, id)

	d, err := scanDataset(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Dataset{}, &apperr.DatasetNotFoundError{DatasetID: id}
		}
		return Dataset{}, &apperr.InternalError{Cause: fmt.Errorf("get dataset: %w", err)}
	}
	return d, nil
}

// ListDatasets returns every dataset ordered by created_at desc, matching
// database.rs's list_datasets ordering. Per spec.md §7, a scan failure is
// logged and reported as an empty list rather than propagated, since
// partial catalog visibility beats none for a read-only listing.
func (s *Store) ListDatasets(ctx context.Context) ([]Dataset, error) {
	obslog.Tracef("[PG] SELECT * FROM datasets ORDER BY created_at DESC")
	rows, err := s.pool.Query(ctx, `SELECT `+datasetColumns+` FROM datasets ORDER BY created_at DESC`)
	if err != nil {
		obslog.Warnf("[PG] list_datasets query failed: %v", err)
		return nil, nil
	}
	defer rows.Close()

	var out []Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			obslog.Warnf("[PG] list_datasets scan failed: %v", err)
			return nil, nil
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		obslog.Warnf("[PG] list_datasets row iteration failed: %v", err)
		return nil, nil
	}
	return out, nil
}

// SaveMetadata persists the files and columns inferred for a dataset,
// transactionally, with statistics upserted on conflict - the Go
// equivalent of database.rs's save_metadata (insert files + columns, then
// ON CONFLICT DO UPDATE for dataset_statistics). Files and columns are
// upserted too: re-saving the same (dataset_id, filename)/(dataset_id,
// name) pair updates the row in place so a re-ingest or re-inferred
// schema doesn't duplicate rows or fail on the primary key.
func (s *Store) SaveMetadata(ctx context.Context, datasetID string, files []DatasetFile, columns []DatasetColumn, stats []DatasetStatistic) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &apperr.ConfigError{Reason: fmt.Sprintf("begin save_metadata tx: %v", err)}
	}
	defer tx.Rollback(ctx)

	for _, f := range files {
		if _, err := tx.Exec(ctx,
			`INSERT INTO dataset_files (dataset_id, filename, storage_path, size_bytes, row_count, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (dataset_id, filename) DO UPDATE SET
				storage_path = EXCLUDED.storage_path,
				size_bytes = EXCLUDED.size_bytes,
				row_count = EXCLUDED.row_count`,
			datasetID, f.Filename, f.StoragePath, f.SizeBytes, f.RowCount, f.CreatedAt,
		); err != nil {
			return &apperr.ConfigError{Reason: fmt.Sprintf("insert dataset_files: %v", err)}
		}
	}

	for _, c := range columns {
		statsJSON, err := json.Marshal(c.Statistics)
		if err != nil {
			return &apperr.ConfigError{Reason: fmt.Sprintf("marshal column statistics: %v", err)}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO dataset_columns (dataset_id, name, arrow_type, nullable, description, statistics)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (dataset_id, name) DO UPDATE SET
				arrow_type = EXCLUDED.arrow_type,
				nullable = EXCLUDED.nullable,
				description = EXCLUDED.description,
				statistics = EXCLUDED.statistics`,
			datasetID, c.Name, c.ArrowType, c.Nullable, c.Description, statsJSON,
		); err != nil {
			return &apperr.ConfigError{Reason: fmt.Sprintf("insert dataset_columns: %v", err)}
		}
	}

	for _, st := range stats {
		if _, err := tx.Exec(ctx,
			`INSERT INTO dataset_statistics (dataset_id, stat_key, stat_value)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (dataset_id, stat_key) DO UPDATE SET stat_value = EXCLUDED.stat_value`,
			datasetID, st.StatKey, st.StatValue,
		); err != nil {
			return &apperr.ConfigError{Reason: fmt.Sprintf("upsert dataset_statistics: %v", err)}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &apperr.ConfigError{Reason: fmt.Sprintf("commit save_metadata tx: %v", err)}
	}
	return nil
}

// LoadMetadata joins a dataset with its files, columns, and statistics,
// matching database.rs's load_metadata four-table join; returns
// apperr.DatasetNotFoundError if the root dataset row is missing.
func (s *Store) LoadMetadata(ctx context.Context, datasetID string) (DatasetMetadata, error) {
	dataset, err := s.GetDataset(ctx, datasetID)
	if err != nil {
		var notFound *apperr.DatasetNotFoundError
		if errors.As(err, &notFound) {
			return DatasetMetadata{}, err
		}
		return DatasetMetadata{}, &apperr.ConfigError{Reason: fmt.Sprintf("load dataset: %v", err)}
	}

	fileRows, err := s.pool.Query(ctx,
		`SELECT dataset_id, filename, storage_path, size_bytes, row_count, created_at
		 FROM dataset_files WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return DatasetMetadata{}, &apperr.ConfigError{Reason: fmt.Sprintf("load dataset_files: %v", err)}
	}
	var files []DatasetFile
	for fileRows.Next() {
		var f DatasetFile
		if err := fileRows.Scan(&f.DatasetID, &f.Filename, &f.StoragePath, &f.SizeBytes, &f.RowCount, &f.CreatedAt); err != nil {
			fileRows.Close()
			return DatasetMetadata{}, &apperr.ConfigError{Reason: err.Error()}
		}
		files = append(files, f)
	}
	fileRows.Close()
	if err := fileRows.Err(); err != nil {
		return DatasetMetadata{}, &apperr.ConfigError{Reason: err.Error()}
	}

	colRows, err := s.pool.Query(ctx,
		`SELECT dataset_id, name, arrow_type, nullable, description, statistics
		 FROM dataset_columns WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return DatasetMetadata{}, &apperr.ConfigError{Reason: fmt.Sprintf("load dataset_columns: %v", err)}
	}
	var columns []DatasetColumn
	for colRows.Next() {
		var c DatasetColumn
		var statsJSON []byte
		if err := colRows.Scan(&c.DatasetID, &c.Name, &c.ArrowType, &c.Nullable, &c.Description, &statsJSON); err != nil {
			colRows.Close()
			return DatasetMetadata{}, &apperr.ConfigError{Reason: err.Error()}
		}
		if len(statsJSON) > 0 {
			if err := json.Unmarshal(statsJSON, &c.Statistics); err != nil {
				colRows.Close()
				return DatasetMetadata{}, &apperr.ConfigError{Reason: fmt.Sprintf("unmarshal column statistics: %v", err)}
			}
		}
		columns = append(columns, c)
	}
	colRows.Close()
	if err := colRows.Err(); err != nil {
		return DatasetMetadata{}, &apperr.ConfigError{Reason: err.Error()}
	}

	statRows, err := s.pool.Query(ctx,
		`SELECT stat_key, stat_value FROM dataset_statistics WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return DatasetMetadata{}, &apperr.ConfigError{Reason: fmt.Sprintf("load dataset_statistics: %v", err)}
	}
	var stats []DatasetStatistic
	for statRows.Next() {
		var st DatasetStatistic
		st.DatasetID = datasetID
		if err := statRows.Scan(&st.StatKey, &st.StatValue); err != nil {
			statRows.Close()
			return DatasetMetadata{}, &apperr.ConfigError{Reason: err.Error()}
		}
		stats = append(stats, st)
	}
	statRows.Close()
	if err := statRows.Err(); err != nil {
		return DatasetMetadata{}, &apperr.ConfigError{Reason: err.Error()}
	}

	return DatasetMetadata{Dataset: dataset, Files: files, Columns: columns, Statistics: stats}, nil
}
