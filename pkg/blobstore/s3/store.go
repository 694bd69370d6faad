// Package s3 implements blobstore.Store over an S3-compatible bucket. It
// exists alongside the filesystem implementation so the asset store can run
// with the blob layer on object storage without changing any caller code;
// selection happens entirely behind the blobstore.Store interface.
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/beatmaplib/assetstore/pkg/blobstore"
	"github.com/beatmaplib/assetstore/pkg/storeerr"
)

// Config configures the S3 blob store.
type Config struct {
	Bucket string
	Prefix string // optional key prefix, joined in front of every relative path

	Region          string
	Endpoint        string // non-empty for S3-compatible services (Localstack, MinIO)
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Store is an S3-backed blobstore.Store.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds a Store from cfg, constructing its own AWS SDK client.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, storeerr.New(storeerr.ErrIOFailure, "blobstore/s3.New")
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.ErrStorageUnavailable, "blobstore/s3.New", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *Store) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

// Exists reports whether a blob is present at path.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/s3.Exists", path, err)
}

// OpenRead returns a readable stream for the blob at path.
func (s *Store) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storeerr.WithPath(storeerr.ErrNotFound, "blobstore/s3.OpenRead", path, err)
		}
		return nil, storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/s3.OpenRead", path, err)
	}
	return out.Body, nil
}

// bufferedWriter accumulates the full blob in memory and issues a single
// PutObject on Close. S3 has no append semantics, so unlike the filesystem
// implementation there is no temp-file rename to borrow; buffering the
// whole object is the simplest correct translation for the blob sizes this
// store handles (single beatmap-set component files).
type bufferedWriter struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	buf    bytes.Buffer
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *bufferedWriter) Close() error {
	_, err := w.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.key),
		Body:   bytes.NewReader(w.buf.Bytes()),
	})
	if err != nil {
		return storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/s3.OpenWrite", w.key, err)
	}
	return nil
}

// OpenWrite returns a writable stream for path. S3 has no directory
// concept, so there are no parent directories to create.
func (s *Store) OpenWrite(ctx context.Context, path string) (io.WriteCloser, error) {
	return &bufferedWriter{ctx: ctx, client: s.client, bucket: s.bucket, key: s.key(path)}, nil
}

// Delete removes a single blob. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil && !isNotFound(err) {
		return storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/s3.Delete", path, err)
	}
	return nil
}

// DeleteAll recursively removes every blob under the given key prefix.
func (s *Store) DeleteAll(ctx context.Context, path string) error {
	prefix := s.key(path)

	var continuationToken *string
	for {
		list, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/s3.DeleteAll", path, err)
		}
		if len(list.Contents) == 0 {
			break
		}

		ids := make([]types.ObjectIdentifier, 0, len(list.Contents))
		for _, obj := range list.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}
		if _, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids},
		}); err != nil {
			return storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/s3.DeleteAll", path, err)
		}

		if list.IsTruncated == nil || !*list.IsTruncated {
			break
		}
		continuationToken = list.NextContinuationToken
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NoSuchKey
	if errors.As(err, &nf) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

var _ blobstore.Store = (*Store)(nil)
