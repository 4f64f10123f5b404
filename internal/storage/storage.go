// Package storage wraps the S3-compatible object store holding instructor
// profile photos.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"
)

// PutObjectOptions describe an upload. Size must be the exact byte count, or -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo is what the store reports back after an upload.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

// Storage streams objects in and out of a single bucket.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited download URL.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// PhotoKey builds the object key of an instructor photo. A fresh version
// per upload keeps cached URLs from serving a replaced image.
func PhotoKey(instructorID, version, ext string) string {
	return path.Join("instructors", instructorID, fmt.Sprintf("photo-%s%s", version, ext))
}
