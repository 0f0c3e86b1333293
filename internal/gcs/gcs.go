// Package gcs reads sources from and writes results to Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Store wraps a storage client. It assumes Application Default Credentials unless a
// service account key file is given.
type Store struct {
	client *storage.Client
}

// NewStore creates a storage client.
func NewStore(ctx context.Context, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the client.
func (s *Store) Close() error { return s.client.Close() }

// Open returns a reader for gs://bucket/object.
func (s *Store) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, object, err := SplitURI(uri)
	if err != nil {
		return nil, err
	}
	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucket, object, err)
	}
	return rc, nil
}

// Upload copies r to gs://bucket/object.
func (s *Store) Upload(ctx context.Context, uri string, r io.Reader) error {
	bucket, object, err := SplitURI(uri)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// IsURI reports whether s is a gs:// URI.
func IsURI(s string) bool { return strings.HasPrefix(s, "gs://") }

// SplitURI splits gs://bucket/path/to/object into bucket and object path.
func SplitURI(uri string) (bucket, object string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
