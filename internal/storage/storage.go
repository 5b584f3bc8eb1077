package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when the requested object does not exist
var ErrObjectNotFound = errors.New("object not found")

// ErrBucketNotFound is returned when the requested bucket does not exist
var ErrBucketNotFound = errors.New("bucket not found")

// Object represents a stored file
type Object struct {
	Key          string            `json:"key"`
	Bucket       string            `json:"bucket"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// UploadOptions contains options for uploading files
type UploadOptions struct {
	ContentType  string
	Metadata     map[string]string
	CacheControl string
}

// ListOptions contains options for listing objects
type ListOptions struct {
	Prefix  string
	MaxKeys int
}

// ListResult contains the result of a list operation
type ListResult struct {
	Objects     []Object
	IsTruncated bool
}

// Storage defines the interface for artifact storage operations
type Storage interface {
	// Upload uploads a file to storage
	Upload(ctx context.Context, bucket, key string, data io.Reader, size int64, opts *UploadOptions) (*Object, error)

	// Download downloads a file from storage
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, *Object, error)

	// Delete deletes a file from storage
	Delete(ctx context.Context, bucket, key string) error

	// DeletePrefix deletes every object under the given key prefix
	DeletePrefix(ctx context.Context, bucket, prefix string) error

	// Exists checks if a file exists
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// GetObject gets object metadata without downloading the file
	GetObject(ctx context.Context, bucket, key string) (*Object, error)

	// List lists objects in a bucket
	List(ctx context.Context, bucket string, opts *ListOptions) (*ListResult, error)

	// EnsureBucket creates the bucket if it does not already exist
	EnsureBucket(ctx context.Context, bucket string) error
}

// Provider is the interface that storage providers must implement
type Provider interface {
	Storage
	Name() string
	Health(ctx context.Context) error
}
