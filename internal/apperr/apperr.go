// Package apperr defines the closed error taxonomy used across the dataset
// query service and the mapping from those errors to gRPC status codes.
package apperr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DatasetNotFoundError is returned when a dataset id has no catalog entry.
type DatasetNotFoundError struct {
	DatasetID string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("dataset not found: %s", e.DatasetID)
}

// InvalidSQLQueryError is returned when a query fails to parse or binds to
// a table that was never registered.
type InvalidSQLQueryError struct {
	Query string
	Cause error
}

func (e *InvalidSQLQueryError) Error() string {
	return fmt.Sprintf("invalid sql query %q: %v", e.Query, e.Cause)
}

func (e *InvalidSQLQueryError) Unwrap() error { return e.Cause }

// QueryExecutionFailedError wraps a failure that happened once execution
// had already started (evaluation error, IPC encoding error, and so on).
type QueryExecutionFailedError struct {
	Cause error
}

func (e *QueryExecutionFailedError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Cause)
}

func (e *QueryExecutionFailedError) Unwrap() error { return e.Cause }

// IOError wraps a failure talking to an object store or the local
// filesystem during ingestion.
type IOError struct {
	Op    string
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error during %s: %v", e.Op, e.Cause)
}

func (e *IOError) Unwrap() error { return e.Cause }

// ConfigError is returned for missing or malformed configuration, or for an
// object store scheme the service does not support.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Reason)
}

// InternalError is the catch-all for unexpected failures (a catalog row
// that cannot be read, a dataset that cannot be staged or registered, and
// so on). Its message includes the cause, and ToStatus passes that
// message through unchanged.
type InternalError struct {
	Cause error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Cause)
}

func (e *InternalError) Unwrap() error { return e.Cause }

// ToStatus maps the closed taxonomy onto gRPC status codes, mirroring
// AnalysisError's From<AnalysisError> for tonic::Status in the original
// engine: DatasetNotFound -> NotFound, InvalidSqlQuery|ConfigError ->
// InvalidArgument, everything else -> Internal.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}

	var notFound *DatasetNotFoundError
	if errors.As(err, &notFound) {
		return status.Error(codes.NotFound, err.Error())
	}

	var invalidSQL *InvalidSQLQueryError
	if errors.As(err, &invalidSQL) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	var cfg *ConfigError
	if errors.As(err, &cfg) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	return status.Error(codes.Internal, err.Error())
}
