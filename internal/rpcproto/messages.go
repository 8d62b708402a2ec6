// Package rpcproto defines the wire messages and service contract for the
// dataset query service's binary RPC surface (C7/C9), mirroring spec.md
// §6's field-for-field message shapes. Since protoc/buf cannot run in
// this environment, the would-be generated .pb.go types are hand-authored
// plain structs carrying JSON tags, and a grpc.ServiceDesc is registered
// by hand in service.go instead of from a .proto file - see DESIGN.md for
// the stdlib/simplification justification. The real grpc-go transport
// (HTTP/2 framing, streaming, status codes) is unchanged; only the
// payload marshaling differs from a protoc-generated client.
package rpcproto

// Dataset is the external DTO for a catalog entry, matching spec.md §6's
// Dataset message.
type Dataset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	FilePath    string   `json:"file_path"`
	Format      string   `json:"format"`
	SizeBytes   int64    `json:"size_bytes"`
	RowCount    int32    `json:"row_count"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// ColumnInfo is one column's external schema shape, matching spec.md §6's
// ColumnInfo message.
type ColumnInfo struct {
	Name        string            `json:"name"`
	DataType    string            `json:"data_type"`
	Nullable    bool              `json:"nullable"`
	Description string            `json:"description"`
	Statistics  map[string]string `json:"statistics"`
}

// DatasetMetadata is the external DTO for a dataset's full metadata,
// matching spec.md §6's DatasetMetadata message.
type DatasetMetadata struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Columns     []ColumnInfo      `json:"columns"`
	RowCount    int32             `json:"row_count"`
	SizeBytes   int64             `json:"size_bytes"`
	Format      string            `json:"format"`
	Tags        []string          `json:"tags"`
	Statistics  map[string]string `json:"statistics"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// ListDatasetsRequest takes no parameters.
type ListDatasetsRequest struct{}

// ListDatasetsResponse carries every cataloged dataset.
type ListDatasetsResponse struct {
	Datasets []Dataset `json:"datasets"`
}

// GetMetadataRequest names a single dataset by id.
type GetMetadataRequest struct {
	DatasetID string `json:"dataset_id"`
}

// GetMetadataResponse carries the resolved metadata.
type GetMetadataResponse struct {
	Metadata DatasetMetadata `json:"metadata"`
}

// ExecuteQueryRequest names the dataset, the SQL text, and an optional
// row limit (<=0 is treated as absent per spec.md §4.6).
type ExecuteQueryRequest struct {
	DatasetID string `json:"dataset_id"`
	SQL       string `json:"sql"`
	Limit     int32  `json:"limit"`
}

// QueryMetadata is the first frame of a successful query stream, matching
// spec.md §6's QueryMetadata message.
type QueryMetadata struct {
	ArrowSchema   []byte   `json:"arrow_schema"`
	ColumnNames   []string `json:"column_names"`
	EstimatedRows int32    `json:"estimated_rows"`
}

// QueryDataChunk is one row-bounded, independently IPC-encoded slice of a
// query result, matching spec.md §6's QueryDataChunk message.
type QueryDataChunk struct {
	ArrowIPCData []byte `json:"arrow_ipc_data"`
	ChunkRows    int32  `json:"chunk_rows"`
	ChunkIndex   int32  `json:"chunk_index"`
}

// QueryComplete is the final frame of every query stream, matching
// spec.md §6's QueryComplete message.
type QueryComplete struct {
	TotalRows       int32  `json:"total_rows"`
	ExecutionTimeMs string `json:"execution_time_ms"`
	Success         bool   `json:"success"`
	ErrorMessage    string `json:"error_message"`
}

// FrameKind discriminates ExecuteQueryResponse's oneof, matching domain.rs's
// closed frame enum; decoders must match exhaustively on it (spec.md §9's
// "sum type for frames" design note) rather than branching on which
// pointer field is non-nil.
type FrameKind string

const (
	FrameKindMetadata  FrameKind = "metadata"
	FrameKindDataChunk FrameKind = "data_chunk"
	FrameKindComplete  FrameKind = "complete"
)

// ExecuteQueryResponse is the tagged union streamed back for one query,
// matching spec.md §6's `ExecuteQueryResponse = oneof { Metadata |
// DataChunk | Complete }`.
type ExecuteQueryResponse struct {
	Kind     FrameKind       `json:"kind"`
	Metadata *QueryMetadata  `json:"metadata,omitempty"`
	Data     *QueryDataChunk `json:"data_chunk,omitempty"`
	Complete *QueryComplete  `json:"complete,omitempty"`
}

// AddDatasetRequest describes a new dataset to ingest from an external
// object-store path, matching spec.md §4.6's AddDataset parameters.
type AddDatasetRequest struct {
	Name        string   `json:"name"`
	SourcePath  string   `json:"source_path"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Format      string   `json:"format"`
}

// AddDatasetResponse never raises over RPC for a validation failure;
// Success=false with a human Message is the failure channel, matching
// spec.md §7's "AddDataset over RPC never raises".
type AddDatasetResponse struct {
	Success   bool     `json:"success"`
	DatasetID string   `json:"dataset_id"`
	Message   string   `json:"message"`
	Dataset   *Dataset `json:"dataset,omitempty"`
}

// HealthCheckRequest takes no parameters.
type HealthCheckRequest struct{}

// HealthCheckResponse reports liveness and the running server version.
type HealthCheckResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
