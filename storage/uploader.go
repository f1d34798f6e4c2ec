package storage

import (
	"context"
	"io"
)

// UploadResult describes an object written to the bucket. Location is empty
// when no public base URL is configured.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is the object store the roster archive writes to.
type FileUploader interface {
	// Upload writes the object at key, replacing any previous version.
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
