package objectstore

import (
	"context"
	"sync"

	"cloud.google.com/go/storage"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dataquery/engine/internal/apperr"
)

// Registry lazily constructs and caches one Store per backend, mirroring
// the teacher's GetClient sync.Once singleton but generalized to more than
// one backend kind.
type Registry struct {
	mu        sync.Mutex
	gcsStore  *GCSStore
	gcsErr    error
	gcsOnce   sync.Once
	s3Store   *S3Store
	s3Err     error
	s3Once    sync.Once
	// ManagedBucket is the service's own GCS bucket (GCS_BUCKET_NAME),
	// the destination internal/ingest copies every dataset file into.
	ManagedBucket string
}

// NewRegistry creates an empty Registry; backends are constructed on
// first use by GCS/S3.
func NewRegistry(managedBucket string) *Registry {
	return &Registry{ManagedBucket: managedBucket}
}

// GCS returns the process-wide GCS-backed Store, constructing the
// underlying client on first call.
func (r *Registry) GCS(ctx context.Context) (Store, error) {
	r.gcsOnce.Do(func() {
		client, err := storage.NewClient(ctx)
		if err != nil {
			r.gcsErr = &apperr.ConfigError{Reason: "failed to construct GCS client: " + err.Error()}
			return
		}
		r.gcsStore = NewGCSStore(client)
	})
	return r.gcsStore, r.gcsErr
}

// S3 returns the process-wide S3-backed Store, constructing the
// underlying client (with the default AWS config chain) on first call.
func (r *Registry) S3(ctx context.Context) (Store, error) {
	r.s3Once.Do(func() {
		cfg, err := awscfg.LoadDefaultConfig(ctx)
		if err != nil {
			r.s3Err = &apperr.ConfigError{Reason: "failed to load AWS config: " + err.Error()}
			return
		}
		r.s3Store = NewS3Store(s3.NewFromConfig(cfg))
	})
	return r.s3Store, r.s3Err
}
