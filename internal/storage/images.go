// Package storage removes item images from object storage when an item is
// hard deleted. Uploading is handled by clients directly.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type ImageStore interface {
	// Delete removes every referenced object. Missing objects are not an error.
	Delete(ctx context.Context, refs []string) error
}

// objectDeleter is the slice of the GCS client this package needs.
type objectDeleter interface {
	deleteObject(ctx context.Context, bucket, object string) error
}

type gcsDeleter struct {
	client *gcs.Client
}

func (d gcsDeleter) deleteObject(ctx context.Context, bucket, object string) error {
	return d.client.Bucket(bucket).Object(object).Delete(ctx)
}

type gcsImageStore struct {
	bucket  string
	deleter objectDeleter
}

// NewGCSImageStore connects to Cloud Storage. credentialsFile may be empty.
func NewGCSImageStore(ctx context.Context, bucket, credentialsFile string) (ImageStore, *gcs.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	return &gcsImageStore{bucket: bucket, deleter: gcsDeleter{client: client}}, client, nil
}

func (s *gcsImageStore) Delete(ctx context.Context, refs []string) error {
	var errs []error
	for _, ref := range refs {
		bucket, object, ok := splitRef(s.bucket, ref)
		if !ok {
			continue
		}
		if err := s.deleter.deleteObject(ctx, bucket, object); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("delete %s/%s: %w", bucket, object, err))
		}
	}
	return errors.Join(errs...)
}

// splitRef accepts gs://bucket/object, https://storage.googleapis.com/bucket/object
// or a bare object name in the default bucket. Foreign URLs are skipped.
func splitRef(defaultBucket, ref string) (string, string, bool) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", "", false
	case strings.HasPrefix(ref, "gs://"):
		return cutBucket(strings.TrimPrefix(ref, "gs://"))
	case strings.HasPrefix(ref, "https://storage.googleapis.com/"):
		return cutBucket(strings.TrimPrefix(ref, "https://storage.googleapis.com/"))
	case strings.Contains(ref, "://"):
		return "", "", false
	default:
		if defaultBucket == "" {
			return "", "", false
		}
		return defaultBucket, strings.TrimPrefix(ref, "/"), true
	}
}

func cutBucket(rest string) (string, string, bool) {
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

type noopImageStore struct{}

// NewNoopImageStore is used when no bucket is configured.
func NewNoopImageStore() ImageStore { return noopImageStore{} }

func (noopImageStore) Delete(context.Context, []string) error { return nil }
