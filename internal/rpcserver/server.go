// Package rpcserver implements C7: the binary RPC surface that exposes
// catalog listing, metadata fetch, streaming query execution, dataset
// ingestion, and a health check, mirroring the Rust original's
// grpc_server.rs method-for-method. Failures are mapped onto gRPC status
// codes through internal/apperr.ToStatus at every boundary.
package rpcserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dataquery/engine/internal/apperr"
	"github.com/dataquery/engine/internal/catalog"
	"github.com/dataquery/engine/internal/ingest"
	"github.com/dataquery/engine/internal/obslog"
	"github.com/dataquery/engine/internal/queryrt"
	"github.com/dataquery/engine/internal/rpcproto"
	"github.com/dataquery/engine/internal/sqlengine"
	"github.com/dataquery/engine/internal/streamer"
)

// Version is the running server version reported by HealthCheck and
// advertised by the Tool-Host façade's initialize response.
const Version = "0.1.0"

// FrameChannelCapacity is the bound on the producer-to-wire channel each
// ExecuteQuery call spawns, matching spec.md §5's "bounded channel
// (capacity 32)".
const FrameChannelCapacity = 32

// Server implements rpcproto.QueryEngineServer, wiring the catalog,
// ingestion pipeline, and query runtime adapter together the way
// grpc_server.rs's QueryEngineServiceImpl holds an Arc<DatabaseManager>,
// an Arc<DatasetManager>, and an Arc<AnalysisEngine>.
type Server struct {
	ingestMgr *ingest.Manager
	store     *catalog.Store
	runtime   *queryrt.Runtime
}

// New constructs a Server bound to the given ingestion manager, catalog
// store, and query runtime adapter.
func New(ingestMgr *ingest.Manager, store *catalog.Store, runtime *queryrt.Runtime) *Server {
	return &Server{ingestMgr: ingestMgr, store: store, runtime: runtime}
}

// ListDatasets returns every cataloged dataset DTO, ordered (via the
// catalog) by created_at descending.
func (s *Server) ListDatasets(ctx context.Context, _ *rpcproto.ListDatasetsRequest) (*rpcproto.ListDatasetsResponse, error) {
	datasets, err := s.ingestMgr.ListDatasets(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	out := make([]rpcproto.Dataset, len(datasets))
	for i, d := range datasets {
		out[i] = toDatasetDTO(d)
	}
	return &rpcproto.ListDatasetsResponse{Datasets: out}, nil
}

// GetMetadata loads the catalog's view of a dataset, lazily registers it
// into the query runtime if this is the first reference, and overwrites
// the response's columns with the kernel-inferred schema so columns
// always reflect the current file, matching spec.md §4.6 point 2.
func (s *Server) GetMetadata(ctx context.Context, req *rpcproto.GetMetadataRequest) (*rpcproto.GetMetadataResponse, error) {
	meta, err := s.store.LoadMetadata(ctx, req.DatasetID)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	if err := s.ensureRegistered(ctx, meta); err != nil {
		return nil, apperr.ToStatus(err)
	}

	cols, err := s.runtime.Schema(ctx, req.DatasetID)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	columns := make([]catalog.DatasetColumn, len(cols))
	dtoColumns := make([]rpcproto.ColumnInfo, len(cols))
	for i, c := range cols {
		columns[i] = catalog.DatasetColumn{
			DatasetID: req.DatasetID, Name: c.Name, ArrowType: c.ArrowType,
			Nullable: c.Nullable, Description: c.Description,
		}
		dtoColumns[i] = rpcproto.ColumnInfo{
			Name: c.Name, DataType: c.ArrowType, Nullable: c.Nullable,
			Description: c.Description, Statistics: map[string]string{},
		}
	}
	if err := s.store.SaveMetadata(ctx, req.DatasetID, nil, columns, nil); err != nil {
		obslog.Warnf("[RPC] failed to persist refreshed columns for %s: %v", req.DatasetID, err)
	}

	stats := make(map[string]string, len(meta.Statistics))
	for _, st := range meta.Statistics {
		stats[st.StatKey] = st.StatValue
	}

	return &rpcproto.GetMetadataResponse{Metadata: rpcproto.DatasetMetadata{
		ID:          meta.Dataset.ID,
		Name:        meta.Dataset.Name,
		Description: meta.Dataset.Description,
		Columns:     dtoColumns,
		RowCount:    int32(meta.Dataset.RowCount),
		SizeBytes:   meta.Dataset.SizeBytes,
		Format:      meta.Dataset.Format,
		Tags:        meta.Dataset.Tags,
		Statistics:  stats,
		CreatedAt:   meta.Dataset.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   meta.Dataset.UpdatedAt.Format(time.RFC3339),
	}}, nil
}

// ExecuteQuery runs sql against datasetID (lazily registering it first)
// and streams Metadata/DataChunk/Complete frames through a
// FrameChannelCapacity-bounded channel, matching spec.md §4.6 point 3 and
// §5's producer/backpressure model: the producer suspends on a full
// channel, and a failed Send (client disconnect) aborts production
// promptly without a Complete frame.
func (s *Server) ExecuteQuery(req *rpcproto.ExecuteQueryRequest, stream rpcproto.QueryEngine_ExecuteQueryServer) error {
	ctx := stream.Context()
	start := time.Now()

	meta, err := s.store.LoadMetadata(ctx, req.DatasetID)
	if err != nil {
		return apperr.ToStatus(err)
	}
	if err := s.ensureRegistered(ctx, meta); err != nil {
		return apperr.ToStatus(err)
	}

	limit := int64(0)
	if req.Limit > 0 {
		limit = int64(req.Limit)
	}

	var frames *streamer.Frames
	var queryErr error

	schema, rec, execErr := s.runtime.Execute(ctx, req.DatasetID, req.SQL, limit)
	if execErr != nil {
		queryErr = execErr
	} else {
		defer rec.Release()
		frames, queryErr = streamer.BuildFrames(schema, rec, sqlengine.ArrowTypeToString)
	}

	elapsedMs := time.Since(start).Milliseconds()

	success := queryErr == nil
	errMsg := ""
	if queryErr != nil {
		errMsg = queryErr.Error()
		obslog.Warnf("[RPC] query failed for dataset %s: %v", req.DatasetID, queryErr)
	}

	var totalRows int64
	if frames != nil && frames.Metadata != nil {
		totalRows = frames.Metadata.EstimatedRows
	}

	ch := make(chan *rpcproto.ExecuteQueryResponse, FrameChannelCapacity)
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go produceFrames(pctx, frames, totalRows, elapsedMs, success, errMsg, ch)

	for frame := range ch {
		if sendErr := stream.Send(frame); sendErr != nil {
			cancel()
			return sendErr
		}
	}
	return nil
}

// ensureRegistered lazily registers a dataset into the query runtime if
// it hasn't been already, matching spec.md §8's "register is called at
// most once per dataset per process lifetime" invariant (Register itself
// is idempotent; IsRegistered is just a fast-path check).
func (s *Server) ensureRegistered(ctx context.Context, meta catalog.DatasetMetadata) error {
	if s.runtime.IsRegistered(meta.Dataset.ID) {
		return nil
	}
	return s.runtime.Register(ctx, meta)
}

func produceFrames(ctx context.Context, frames *streamer.Frames, totalRows, elapsedMs int64, success bool, errMsg string, ch chan<- *rpcproto.ExecuteQueryResponse) {
	defer close(ch)

	send := func(r *rpcproto.ExecuteQueryResponse) bool {
		select {
		case ch <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if frames != nil && frames.Metadata != nil {
		if !send(&rpcproto.ExecuteQueryResponse{
			Kind: rpcproto.FrameKindMetadata,
			Metadata: &rpcproto.QueryMetadata{
				ArrowSchema:   frames.Metadata.SchemaBytes,
				ColumnNames:   frames.Metadata.ColumnNames,
				EstimatedRows: int32(frames.Metadata.EstimatedRows),
			},
		}) {
			return
		}
		for _, c := range frames.Chunks {
			if !send(&rpcproto.ExecuteQueryResponse{
				Kind: rpcproto.FrameKindDataChunk,
				Data: &rpcproto.QueryDataChunk{
					ArrowIPCData: c.ArrowIPCData,
					ChunkRows:    int32(c.ChunkRows),
					ChunkIndex:   int32(c.ChunkIndex),
				},
			}) {
				return
			}
		}
	}

	send(&rpcproto.ExecuteQueryResponse{
		Kind: rpcproto.FrameKindComplete,
		Complete: &rpcproto.QueryComplete{
			TotalRows:       int32(totalRows),
			ExecutionTimeMs: strconv.FormatInt(elapsedMs, 10),
			Success:         success,
			ErrorMessage:    errMsg,
		},
	})
}

// AddDataset ingests a new dataset from an external object-store path.
// Per spec.md §7, this RPC never raises: validation and ingestion
// failures both come back as Success=false with a human-readable
// Message, sanitised to hide backend detail.
func (s *Server) AddDataset(ctx context.Context, req *rpcproto.AddDatasetRequest) (*rpcproto.AddDatasetResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return &rpcproto.AddDatasetResponse{Success: false, Message: "name must not be empty"}, nil
	}
	if strings.TrimSpace(req.SourcePath) == "" {
		return &rpcproto.AddDatasetResponse{Success: false, Message: "source_path must not be empty"}, nil
	}

	dataset, err := s.ingestMgr.AddDatasetFromExternalPath(ctx, req.Name, req.SourcePath, req.Description, req.Tags, req.Format)
	if err != nil {
		obslog.Errorf("[RPC] add_dataset failed for %q: %v", req.SourcePath, err)
		return &rpcproto.AddDatasetResponse{
			Success: false,
			Message: fmt.Sprintf("failed to ingest dataset %q: could not read or copy the source data", req.Name),
		}, nil
	}

	resp := &rpcproto.AddDatasetResponse{
		Success:   true,
		DatasetID: dataset.ID,
		Message:   fmt.Sprintf("dataset %s ingested successfully", dataset.ID),
	}

	if fresh, err := s.store.GetDataset(ctx, dataset.ID); err == nil {
		dto := toDatasetDTO(fresh)
		resp.Dataset = &dto
	}

	return resp, nil
}

// HealthCheck runs a trivial round-trip query against the query runtime,
// matching datafusion_engine.rs's health_check running "SELECT 1".
func (s *Server) HealthCheck(ctx context.Context, _ *rpcproto.HealthCheckRequest) (*rpcproto.HealthCheckResponse, error) {
	if err := s.runtime.HealthCheck(ctx); err != nil {
		return &rpcproto.HealthCheckResponse{Status: "unhealthy", Version: Version}, nil
	}
	return &rpcproto.HealthCheckResponse{Status: "ok", Version: Version}, nil
}

func toDatasetDTO(d catalog.Dataset) rpcproto.Dataset {
	return rpcproto.Dataset{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		FilePath:    d.DatasetPath,
		Format:      d.Format,
		SizeBytes:   d.SizeBytes,
		RowCount:    int32(d.RowCount),
		Tags:        d.Tags,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   d.UpdatedAt.Format(time.RFC3339),
	}
}
