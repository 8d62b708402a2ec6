// Package objectstore provides a uniform interface over the object stores
// a dataset's files may live in (GCS, S3, or the service's own managed
// bucket), dispatched by URL scheme the way the Rust original's storage.rs
// parses a source URL before choosing a backend. It generalizes the
// teacher's GCS-only internal/storage package (client.go, list.go,
// download.go) into a backend-neutral Store.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dataquery/engine/internal/apperr"
)

// ObjectInfo describes a single object returned by List.
type ObjectInfo struct {
	Name  string
	Size  int64
	IsDir bool
}

// Store is the uniform operation set every backend implements. Paths are
// always bucket-relative; the bucket itself is bound at construction time
// (objectstore.Open) for the managed bucket, or carried in the URL for
// external sources copied in by internal/ingest.
type Store interface {
	// List enumerates objects under prefix, non-recursively grouped the
	// way GCS's delimiter-based listing groups "directories".
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// Get opens a reader for a single object. Callers must Close it.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// PutMultipart streams the full contents of r to bucket/key in
	// BufferSize-bounded parts, matching storage.rs's put_multipart(dst)
	// -> handle{put_part, complete()} contract: no single file is ever
	// materialized in full in memory, regardless of its size.
	PutMultipart(ctx context.Context, bucket, key string, r io.Reader) error

	// Copy attempts a server-side copy from one location to another
	// within the same backend. Any error means the caller should fall
	// back to Get+PutMultipart: GCS wraps its copy failure in
	// ErrCopyUnsupported, S3 returns an apperr.IOError.
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error
}

// ErrCopyUnsupported wraps a failed GCS server-side copy, signalling that
// the caller should stream through Get+PutMultipart instead, mirroring
// storage.rs's copy-then-multipart-fallback strategy.
var ErrCopyUnsupported = fmt.Errorf("backend does not support server-side copy")

// BufferSize is the part size used by PutMultipart uploads on every
// backend (GCS resumable-writer ChunkSize, S3 UploadPart body size),
// matching storage.rs's BUFFER_SIZE constant (10 MiB).
const BufferSize = 10 * 1024 * 1024

// ParsedLocation is a bucket+key pair parsed from a scheme-qualified URL.
type ParsedLocation struct {
	Scheme string
	Bucket string
	Key    string
}

// ParseLocation splits a "s3://bucket/key" or "gs://bucket/key" URL into
// its scheme, bucket, and key parts, matching dataset_manager.rs's source
// URL parsing ahead of copy_from_external_storage.
func ParseLocation(raw string) (ParsedLocation, error) {
	parts := strings.SplitN(raw, "://", 2)
	if len(parts) != 2 {
		return ParsedLocation{}, &apperr.ConfigError{Reason: fmt.Sprintf("unrecognized object store URL: %q", raw)}
	}
	scheme := parts[0]
	rest := parts[1]

	bucketAndKey := strings.SplitN(rest, "/", 2)
	bucket := bucketAndKey[0]
	key := ""
	if len(bucketAndKey) == 2 {
		key = bucketAndKey[1]
	}

	if bucket == "" {
		return ParsedLocation{}, &apperr.ConfigError{Reason: fmt.Sprintf("object store URL missing bucket: %q", raw)}
	}

	return ParsedLocation{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// IsFilePath classifies a source path as a single file (vs. a directory
// prefix to be listed), matching dataset_manager.rs's is_file_path: the
// last path segment contains a '.' and the path doesn't end in '/'.
func IsFilePath(path string) bool {
	if strings.HasSuffix(path, "/") {
		return false
	}
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	return strings.Contains(last, ".")
}

// Open resolves the Store implementation for a given URL scheme.
func Open(ctx context.Context, scheme string, registry *Registry) (Store, error) {
	switch scheme {
	case "gs":
		return registry.GCS(ctx)
	case "s3":
		return registry.S3(ctx)
	default:
		return nil, &apperr.ConfigError{Reason: fmt.Sprintf("unsupported object store scheme: %q", scheme)}
	}
}
