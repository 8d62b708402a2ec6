package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"dataset not found", &DatasetNotFoundError{DatasetID: "ds_1"}, codes.NotFound},
		{"invalid sql", &InvalidSQLQueryError{Query: "select", Cause: errors.New("parse")}, codes.InvalidArgument},
		{"config error", &ConfigError{Reason: "missing bucket"}, codes.InvalidArgument},
		{"execution failed", &QueryExecutionFailedError{Cause: errors.New("boom")}, codes.Internal},
		{"io error", &IOError{Op: "copy", Cause: errors.New("boom")}, codes.Internal},
		{"internal error", &InternalError{Cause: errors.New("boom")}, codes.Internal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, ok := status.FromError(ToStatus(tc.err))
			assert.True(t, ok)
			assert.Equal(t, tc.want, st.Code())
		})
	}
}

func TestToStatusNil(t *testing.T) {
	assert.Nil(t, ToStatus(nil))
}

func TestToStatusUnwrapsCause(t *testing.T) {
	wrapped := &QueryExecutionFailedError{Cause: &DatasetNotFoundError{DatasetID: "ds_1"}}
	st, ok := status.FromError(ToStatus(wrapped))
	assert.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())
}
