// Package blob stores photo files. Two drivers exist: local (a directory on
// disk) and s3 (AWS S3 or any S3-compatible service such as MinIO).
package blob

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Get returns the blob and its content type. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	// Delete is idempotent: deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
