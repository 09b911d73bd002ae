// Package blobstore uploads garment photos and hands out URLs the generation
// services can fetch.
package blobstore

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Store is a bucket of image objects.
type Store interface {
	// Put uploads body under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// MakePublic makes key readable by third parties and returns its URL.
	MakePublic(ctx context.Context, key string) (string, error)
	// Delete removes the object behind ref, a key or a URL returned by MakePublic.
	// It is best effort: failures are logged and reported as false.
	Delete(ctx context.Context, ref string) bool
}

// keyFromRef turns an object URL back into its key. Plain keys are returned as is.
// For path-style URLs the leading bucket segment is dropped.
func keyFromRef(ref, bucket string) string {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return strings.TrimPrefix(ref, "/")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	p := strings.TrimPrefix(u.Path, "/")
	if bucket != "" && strings.HasPrefix(p, bucket+"/") && !strings.HasPrefix(u.Host, bucket+".") {
		p = strings.TrimPrefix(p, bucket+"/")
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return p
}
