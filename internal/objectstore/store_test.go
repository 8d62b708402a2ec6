package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("s3://my-bucket/path/to/file.csv")
	require.NoError(t, err)
	assert.Equal(t, "s3", loc.Scheme)
	assert.Equal(t, "my-bucket", loc.Bucket)
	assert.Equal(t, "path/to/file.csv", loc.Key)
}

func TestParseLocationNoKey(t *testing.T) {
	loc, err := ParseLocation("gs://bucket-only")
	require.NoError(t, err)
	assert.Equal(t, "bucket-only", loc.Bucket)
	assert.Empty(t, loc.Key)
}

func TestParseLocationRejectsMissingScheme(t *testing.T) {
	_, err := ParseLocation("not-a-url")
	assert.Error(t, err)
}

func TestParseLocationRejectsMissingBucket(t *testing.T) {
	_, err := ParseLocation("s3:///key")
	assert.Error(t, err)
}

func TestIsFilePath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"data/sales.csv", true},
		{"data/sales/", false},
		{"data/sales", false},
		{"data/2024/report.parquet", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsFilePath(tc.path), tc.path)
	}
}
