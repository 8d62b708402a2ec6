package streamer

import (
	"testing"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/stretchr/testify/require"
)

func buildRecord(t *testing.T, rows int) (*arrow.Schema, arrow.Record) {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int64}}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()

	ids := make([]int64, rows)
	for i := range ids {
		ids[i] = int64(i)
	}
	b.Field(0).(*array.Int64Builder).AppendValues(ids, nil)
	return schema, b.NewRecord()
}

func stringType(dt arrow.DataType) string { return dt.Name() }

func TestBuildFramesChunking(t *testing.T) {
	schema, rec := buildRecord(t, 2500)
	defer rec.Release()

	frames, err := BuildFrames(schema, rec, stringType)
	require.NoError(t, err)
	require.NotNil(t, frames.Metadata)
	require.Equal(t, int64(2500), frames.Metadata.EstimatedRows)
	require.NotEmpty(t, frames.Metadata.SchemaBytes)
	require.Len(t, frames.Chunks, 3)
	require.EqualValues(t, 1000, frames.Chunks[0].ChunkRows)
	require.EqualValues(t, 1000, frames.Chunks[1].ChunkRows)
	require.EqualValues(t, 500, frames.Chunks[2].ChunkRows)
	require.EqualValues(t, 0, frames.Chunks[0].ChunkIndex)
	require.EqualValues(t, 2, frames.Chunks[2].ChunkIndex)
}

func TestBuildFramesEmptyResult(t *testing.T) {
	schema, rec := buildRecord(t, 0)
	defer rec.Release()

	frames, err := BuildFrames(schema, rec, stringType)
	require.NoError(t, err)
	require.Nil(t, frames.Metadata)
	require.Empty(t, frames.Chunks)
}

func TestDecodeChunkRoundTrip(t *testing.T) {
	schema, rec := buildRecord(t, 5)
	defer rec.Release()

	frames, err := BuildFrames(schema, rec, stringType)
	require.NoError(t, err)
	require.Len(t, frames.Chunks, 1)

	decoded, err := DecodeChunk(frames.Chunks[0].ArrowIPCData, memory.NewGoAllocator())
	require.NoError(t, err)
	defer decoded.Release()
	require.Equal(t, int64(5), decoded.NumRows())
}
