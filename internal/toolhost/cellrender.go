package toolhost

import (
	"fmt"
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"

	"github.com/dataquery/engine/internal/rpcproto"
	"github.com/dataquery/engine/internal/streamer"
)

// decodeRows IPC-decodes every DataChunk in order and renders each cell to
// its string form per spec.md §6's cell-to-string rendering rules, the Go
// analog of query_client.rs's convert_arrow_ipc_to_rows +
// extract_arrow_value_as_string.
func decodeRows(chunks []*rpcproto.QueryDataChunk, columnNames []string) ([]map[string]string, error) {
	var rows []map[string]string

	for _, chunk := range chunks {
		rec, err := streamer.DecodeChunk(chunk.ArrowIPCData, memoryAllocator)
		if err != nil {
			return nil, fmt.Errorf("decode chunk %d: %w", chunk.ChunkIndex, err)
		}

		for row := 0; row < int(rec.NumRows()); row++ {
			cells := make(map[string]string, len(columnNames))
			for col, name := range columnNames {
				if col >= int(rec.NumCols()) {
					continue
				}
				cells[name] = renderCell(rec.Column(col), row)
			}
			rows = append(rows, cells)
		}
		rec.Release()
	}

	return rows, nil
}

// renderCell renders a single array element to its string form, matching
// the rules enumerated in spec.md §6: null -> "NULL"; booleans/ints/floats
// via native string form; UTF-8 strings verbatim; Date32/Date64 ->
// YYYY-MM-DD; Timestamp(*) normalised to seconds -> "YYYY-MM-DD
// HH:MM:SS"; otherwise a debug string of the one-element slice.
func renderCell(col arrow.Array, row int) string {
	if col.IsNull(row) {
		return "NULL"
	}

	switch a := col.(type) {
	case *array.Boolean:
		return fmt.Sprintf("%t", a.Value(row))
	case *array.Int8:
		return fmt.Sprintf("%d", a.Value(row))
	case *array.Int16:
		return fmt.Sprintf("%d", a.Value(row))
	case *array.Int32:
		return fmt.Sprintf("%d", a.Value(row))
	case *array.Int64:
		return fmt.Sprintf("%d", a.Value(row))
	case *array.Uint8:
		return fmt.Sprintf("%d", a.Value(row))
	case *array.Uint16:
		return fmt.Sprintf("%d", a.Value(row))
	case *array.Uint32:
		return fmt.Sprintf("%d", a.Value(row))
	case *array.Uint64:
		return fmt.Sprintf("%d", a.Value(row))
	case *array.Float32:
		return fmt.Sprintf("%v", a.Value(row))
	case *array.Float64:
		return fmt.Sprintf("%v", a.Value(row))
	case *array.String:
		return a.Value(row)
	case *array.LargeString:
		return a.Value(row)
	case *array.Date32:
		days := int32(a.Value(row))
		return time.Unix(0, 0).UTC().AddDate(0, 0, int(days)).Format("2006-01-02")
	case *array.Date64:
		millis := int64(a.Value(row))
		return time.UnixMilli(millis).UTC().Format("2006-01-02")
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		seconds := timestampToSeconds(int64(a.Value(row)), unit)
		return time.Unix(seconds, 0).UTC().Format("2006-01-02 15:04:05")
	default:
		sliced := array.NewSlice(col, int64(row), int64(row+1))
		defer sliced.Release()
		return sliced.String()
	}
}

func timestampToSeconds(v int64, unit arrow.TimeUnit) int64 {
	switch unit {
	case arrow.Second:
		return v
	case arrow.Millisecond:
		return v / 1_000
	case arrow.Microsecond:
		return v / 1_000_000
	case arrow.Nanosecond:
		return v / 1_000_000_000
	default:
		return v
	}
}
