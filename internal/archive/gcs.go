package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// uploadTimeout bounds a single object write.
const uploadTimeout = 2 * time.Minute

// GCSStore implements ObjectStore on Google Cloud Storage. It assumes
// Application Default Credentials are configured.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates a storage client.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStore: create storage client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// Put implements ObjectStore.
func (s *GCSStore) Put(ctx context.Context, bucket, object string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("Put %s/%s: write: %w", bucket, object, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("Put %s/%s: finalize upload: %w", bucket, object, err)
	}
	return nil
}

// Get implements ObjectStore.
func (s *GCSStore) Get(ctx context.Context, bucket, object string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("Get %s/%s: %w", bucket, object, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get %s/%s: open reader: %w", bucket, object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Get %s/%s: read: %w", bucket, object, err)
	}
	return data, nil
}

// List implements ObjectStore.
func (s *GCSStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("List %s/%s: %w", bucket, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

var _ ObjectStore = (*GCSStore)(nil)
