package toolhost

import (
	"strconv"

	"github.com/dataquery/engine/internal/rpcproto"
)

// QueryResult is the aggregated shape handed back from execute_query and
// the VS Code compatibility tool, matching query_client.rs's QueryResult:
// rows are pre-rendered cell-string maps, not raw Arrow data.
type QueryResult struct {
	Rows            []map[string]string `json:"rows"`
	ColumnNames     []string            `json:"column_names"`
	TotalRows       int64               `json:"total_rows"`
	ExecutionTimeMs int64               `json:"execution_time_ms"`
}

// aggregateFrames drains an ExecuteQuery frame sequence into a QueryResult,
// the Go analog of query_client.rs's exhaustive match over
// Metadata/DataChunk/Complete. An unsuccessful Complete frame's
// error_message is returned as a plain error, matching the Rust original's
// "Err(anyhow!(error_message))".
func aggregateFrames(frames []*rpcproto.ExecuteQueryResponse) (QueryResult, error) {
	var result QueryResult
	var chunks []*rpcproto.QueryDataChunk

	for _, frame := range frames {
		switch frame.Kind {
		case rpcproto.FrameKindMetadata:
			if frame.Metadata != nil {
				result.ColumnNames = frame.Metadata.ColumnNames
			}
		case rpcproto.FrameKindDataChunk:
			if frame.Data != nil {
				chunks = append(chunks, frame.Data)
			}
		case rpcproto.FrameKindComplete:
			if frame.Complete == nil {
				continue
			}
			if !frame.Complete.Success {
				return QueryResult{}, errorString(frame.Complete.ErrorMessage)
			}
			result.TotalRows = int64(frame.Complete.TotalRows)
			if ms, err := strconv.ParseInt(frame.Complete.ExecutionTimeMs, 10, 64); err == nil {
				result.ExecutionTimeMs = ms
			}
		}
	}

	rows, err := decodeRows(chunks, result.ColumnNames)
	if err != nil {
		return QueryResult{}, err
	}
	result.Rows = rows
	return result, nil
}

type errorString string

func (e errorString) Error() string { return string(e) }
