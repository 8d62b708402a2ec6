// Package sqlengine stands in for the opaque SQL kernel the spec treats as
// a black box (DataFusion in the Rust original): it registers tabular
// files as queryable tables and evaluates arbitrary SQL over them. The
// kernel itself is github.com/marcboeker/go-duckdb, an in-process engine
// that reads CSV/Parquet/JSON directly off the filesystem the same way
// DataFusion does, fronted through database/sql (see engine.go); the
// result-set boundary is converted to the real github.com/apache/arrow/go/v15
// family, matching the original's use of arrow-rs for that boundary.
package sqlengine

import (
	"fmt"

	"github.com/apache/arrow/go/v15/arrow"
)

// ArrowTypeToString renders an Arrow DataType as the canonical external
// type string used by the RPC/Tool-Host surfaces (spec.md §6), mirroring
// datafusion_type_to_string's exhaustive match in datafusion_engine.rs.
func ArrowTypeToString(dt arrow.DataType) string {
	switch t := dt.(type) {
	case *arrow.BooleanType:
		return "Boolean"
	case *arrow.Int8Type:
		return "Int8"
	case *arrow.Int16Type:
		return "Int16"
	case *arrow.Int32Type:
		return "Int32"
	case *arrow.Int64Type:
		return "Int64"
	case *arrow.Uint8Type:
		return "UInt8"
	case *arrow.Uint16Type:
		return "UInt16"
	case *arrow.Uint32Type:
		return "UInt32"
	case *arrow.Uint64Type:
		return "UInt64"
	case *arrow.Float32Type:
		return "Float32"
	case *arrow.Float64Type:
		return "Float64"
	case *arrow.StringType:
		return "String"
	case *arrow.LargeStringType:
		return "LargeString"
	case *arrow.BinaryType:
		return "Binary"
	case *arrow.FixedSizeBinaryType:
		return fmt.Sprintf("FixedSizeBinary(%d)", t.ByteWidth)
	case *arrow.Date32Type:
		return "Date32"
	case *arrow.Date64Type:
		return "Date64"
	case *arrow.Time32Type:
		return fmt.Sprintf("Time32(%s)", timeUnitString(t.Unit))
	case *arrow.Time64Type:
		return fmt.Sprintf("Time64(%s)", timeUnitString(t.Unit))
	case *arrow.TimestampType:
		if t.TimeZone != "" {
			return fmt.Sprintf("Timestamp(%s, %s)", timeUnitString(t.Unit), t.TimeZone)
		}
		return fmt.Sprintf("Timestamp(%s)", timeUnitString(t.Unit))
	case *arrow.DurationType:
		return fmt.Sprintf("Duration(%s)", timeUnitString(t.Unit))
	case *arrow.Decimal128Type:
		return fmt.Sprintf("Decimal128(%d, %d)", t.Precision, t.Scale)
	case *arrow.Decimal256Type:
		return fmt.Sprintf("Decimal256(%d, %d)", t.Precision, t.Scale)
	case *arrow.ListType:
		return fmt.Sprintf("List(%s)", ArrowTypeToString(t.Elem()))
	case *arrow.LargeListType:
		return fmt.Sprintf("LargeList(%s)", ArrowTypeToString(t.Elem()))
	case *arrow.FixedSizeListType:
		return fmt.Sprintf("FixedSizeList(%s, %d)", ArrowTypeToString(t.Elem()), t.Len())
	case *arrow.StructType:
		fields := make([]string, t.NumFields())
		for i := 0; i < t.NumFields(); i++ {
			f := t.Field(i)
			fields[i] = fmt.Sprintf("%s: %s", f.Name, ArrowTypeToString(f.Type))
		}
		return fmt.Sprintf("Struct(%v)", fields)
	case *arrow.MapType:
		return fmt.Sprintf("Map(%s, %s)", ArrowTypeToString(t.KeyType()), ArrowTypeToString(t.ItemType()))
	case *arrow.DictionaryType:
		return fmt.Sprintf("Dictionary(%s, %s)", ArrowTypeToString(t.IndexType), ArrowTypeToString(t.ValueType))
	default:
		return dt.String()
	}
}

// DuckDBTypeToString renders a DuckDB column type (as reported by
// PRAGMA table_info, e.g. "BIGINT", "VARCHAR", "TIMESTAMP") as the same
// canonical external type string ArrowTypeToString produces, so the
// RPC/Tool-Host surfaces see one type vocabulary regardless of whether a
// column's Arrow type was ever materialized.
func DuckDBTypeToString(duckType string) string {
	return ArrowTypeToString(arrowTypeForKind(classifyDuckDBType(duckType)))
}

func timeUnitString(u arrow.TimeUnit) string {
	switch u {
	case arrow.Second:
		return "s"
	case arrow.Millisecond:
		return "ms"
	case arrow.Microsecond:
		return "us"
	case arrow.Nanosecond:
		return "ns"
	default:
		return "unknown"
	}
}
