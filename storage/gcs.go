package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore implements KeyValueStore on a Google Cloud Storage bucket. One
// object per key, object name == key.
type GCSStore struct {
	bucket *gcs.BucketHandle
}

func NewGCSStore(client *gcs.Client, bucketName string) *GCSStore {
	return &GCSStore{bucket: client.Bucket(bucketName)}
}

func (s *GCSStore) Put(ctx context.Context, key string, value []byte) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err := w.Write(value); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	// GCS uploads are committed on Close; write errors surface here too.
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to commit object %s: %w", key, err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open object %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *GCSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.bucket.Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return true, nil
}

func (s *GCSStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := s.bucket.Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// Ping checks bucket reachability, used by the health endpoint.
func (s *GCSStore) Ping(ctx context.Context) error {
	if _, err := s.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("bucket unreachable: %w", err)
	}
	return nil
}
