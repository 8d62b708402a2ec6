package objectstore

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dataquery/engine/internal/apperr"
	"github.com/dataquery/engine/internal/obslog"
)

// S3Store implements Store over aws-sdk-go-v2's s3.Client, grounded on
// catherinevee-driftmgr's internal/providers/aws/services/s3.go
// (NewS3Service/DiscoverBuckets shape: a thin wrapper struct holding the
// SDK client, one method per operation, fmt.Errorf("...: %w", err)
// wrapping on every call).
type S3Store struct {
	client *s3.Client
}

// NewS3Store wraps an already-constructed *s3.Client.
func NewS3Store(client *s3.Client) *S3Store {
	return &S3Store{client: client}
}

func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	obslog.Tracef("[S3] ListObjectsV2(bucket=%s, prefix=%q)", bucket, prefix)

	var results []ObjectInfo
	var continuationToken *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, &apperr.IOError{Op: "s3 list", Cause: err}
		}
		for _, p := range out.CommonPrefixes {
			results = append(results, ObjectInfo{Name: aws.ToString(p.Prefix), IsDir: true})
		}
		for _, obj := range out.Contents {
			results = append(results, ObjectInfo{Name: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)})
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuationToken = out.NextContinuationToken
	}
	return results, nil
}

func (s *S3Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obslog.Tracef("[S3] GetObject(bucket=%s, key=%s)", bucket, key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &apperr.IOError{Op: "s3 get", Cause: err}
	}
	return out.Body, nil
}

// PutMultipart streams r to bucket/key in BufferSize parts. A source that
// fits in a single part is sent with one PutObject call; anything larger
// goes through CreateMultipartUpload/UploadPart/CompleteMultipartUpload,
// uploading one BufferSize-sized part at a time so no more than one part
// of the object is ever held in memory. A failure after the upload has
// been created aborts it rather than leaving an incomplete upload billed
// against the bucket.
func (s *S3Store) PutMultipart(ctx context.Context, bucket, key string, r io.Reader) error {
	buf := make([]byte, BufferSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return &apperr.IOError{Op: "s3 put read", Cause: err}
	}

	if n < BufferSize {
		obslog.Tracef("[S3] PutObject(bucket=%s, key=%s)", bucket, key)
		if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(buf[:n]),
		}); err != nil {
			return &apperr.IOError{Op: "s3 put", Cause: err}
		}
		return nil
	}

	obslog.Tracef("[S3] CreateMultipartUpload(bucket=%s, key=%s)", bucket, key)
	created, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &apperr.IOError{Op: "s3 create multipart upload", Cause: err}
	}
	uploadID := created.UploadId

	var parts []types.CompletedPart
	partNumber := int32(1)

	uploadPart := func(data []byte) error {
		out, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(bucket),
			Key:        aws.String(key),
			UploadId:   uploadID,
			PartNumber: aws.Int32(partNumber),
			Body:       bytes.NewReader(data),
		})
		if err != nil {
			return err
		}
		parts = append(parts, types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(partNumber)})
		partNumber++
		return nil
	}

	abort := func() {
		_, _ = s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
			Bucket: aws.String(bucket), Key: aws.String(key), UploadId: uploadID,
		})
	}

	if err := uploadPart(buf[:n]); err != nil {
		abort()
		return &apperr.IOError{Op: "s3 upload part", Cause: err}
	}

	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			if err := uploadPart(buf[:n]); err != nil {
				abort()
				return &apperr.IOError{Op: "s3 upload part", Cause: err}
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			abort()
			return &apperr.IOError{Op: "s3 put read", Cause: readErr}
		}
	}

	if _, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: parts,
		},
	}); err != nil {
		abort()
		return &apperr.IOError{Op: "s3 complete multipart upload", Cause: err}
	}
	return nil
}

func (s *S3Store) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	obslog.Tracef("[S3] CopyObject(%s/%s -> %s/%s)", srcBucket, srcKey, dstBucket, dstKey)
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(srcBucket + "/" + srcKey),
	})
	if err != nil {
		return &apperr.IOError{Op: "s3 copy", Cause: err}
	}
	return nil
}
