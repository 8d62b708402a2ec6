package obslog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracefGatedByVerbose(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(slog.New(slog.NewTextHandler(nil, nil)))

	Verbose = false
	Tracef("[GCS] Objects.List(bucket=%s)", "ds-bucket")
	assert.Empty(t, buf.String())

	Verbose = true
	Tracef("[GCS] Objects.List(bucket=%s)", "ds-bucket")
	assert.Contains(t, buf.String(), "ds-bucket")
	Verbose = false
}

func TestInfofAlwaysEmits(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	Infof("registered dataset %s", "ds_1")
	assert.Contains(t, buf.String(), "ds_1")
}
