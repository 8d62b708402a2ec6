// Package streamer chunks a query result record into bounded-size pieces
// and serializes each piece as an Arrow IPC stream frame, the Go analog of
// the Rust original's StreamWriter-based chunk loop in
// datafusion_engine.rs::execute_query.
package streamer

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/ipc"
	"github.com/apache/arrow/go/v15/arrow/memory"

	"github.com/dataquery/engine/internal/apperr"
)

// ChunkSize is the maximum number of rows per streamed chunk, matching
// datafusion_engine.rs's CHUNK_SIZE constant.
const ChunkSize = 1000

// Metadata is the first frame sent for a query: the column shape and an
// estimated row count, matching domain.rs's QueryMetadata.
type Metadata struct {
	SchemaBytes   []byte
	ColumnNames   []string
	ArrowTypes    []string
	EstimatedRows int64
}

// DataChunk is one Arrow IPC-encoded slice of the result, matching
// domain.rs's QueryDataChunk.
type DataChunk struct {
	ArrowIPCData []byte
	ChunkRows    int64
	ChunkIndex   int64
}

// Frames holds the full Metadata-then-DataChunks sequence produced for one
// query, ready to be handed to the RPC server's streaming loop. Metadata
// is nil when the result is empty, matching spec.md §4.5's "if the result
// is empty, metadata = none, chunks = []".
type Frames struct {
	Metadata *Metadata
	Chunks   []DataChunk
}

// ArrowTypeStringer projects an Arrow DataType to its canonical external
// name. Kept as a function value so callers in other packages can inject
// sqlengine.ArrowTypeToString without streamer importing sqlengine.
type ArrowTypeStringer func(arrow.DataType) string

// BuildFrames slices rec into ChunkSize-row record batches, IPC-encodes
// each one independently, and returns the Metadata/DataChunk sequence the
// RPC server streams to the client.
func BuildFrames(schema *arrow.Schema, rec arrow.Record, typeString ArrowTypeStringer) (*Frames, error) {
	total := rec.NumRows()
	if total == 0 {
		return &Frames{}, nil
	}

	names := make([]string, schema.NumFields())
	types := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		names[i] = f.Name
		types[i] = typeString(f.Type)
	}

	schemaBytes, err := encodeChunk(schema, rec.NewSlice(0, 0))
	if err != nil {
		return nil, &apperr.QueryExecutionFailedError{Cause: fmt.Errorf("encode schema: %w", err)}
	}

	frames := &Frames{
		Metadata: &Metadata{
			SchemaBytes:   schemaBytes,
			ColumnNames:   names,
			ArrowTypes:    types,
			EstimatedRows: total,
		},
	}

	var chunkIndex int64
	for offset := int64(0); offset < total; offset += ChunkSize {
		length := ChunkSize
		if remaining := total - offset; remaining < ChunkSize {
			length = int(remaining)
		}
		slice := rec.NewSlice(offset, offset+int64(length))

		encoded, err := encodeChunk(schema, slice)
		slice.Release()
		if err != nil {
			return nil, &apperr.QueryExecutionFailedError{Cause: fmt.Errorf("encode chunk %d: %w", chunkIndex, err)}
		}

		frames.Chunks = append(frames.Chunks, DataChunk{
			ArrowIPCData: encoded,
			ChunkRows:    int64(length),
			ChunkIndex:   chunkIndex,
		})
		chunkIndex++
	}

	return frames, nil
}

func encodeChunk(schema *arrow.Schema, rec arrow.Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeChunk reads a single IPC-encoded chunk back into a record batch,
// used by internal/toolhost to reassemble streamed results the way
// query_client.rs's convert_arrow_ipc_to_rows does.
func DecodeChunk(data []byte, alloc memory.Allocator) (arrow.Record, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(alloc))
	if err != nil {
		return nil, err
	}
	defer reader.Release()

	if !reader.Next() {
		if err := reader.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("chunk contained no record batch")
	}

	rec := reader.Record()
	rec.Retain()
	return rec, nil
}
