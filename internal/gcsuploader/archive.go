// Package gcsuploader archives raw statement documents in Google Cloud Storage.
package gcsuploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ErrArchiveDisabled is returned by NopArchive.Fetch.
var ErrArchiveDisabled = errors.New("raw archive disabled")

const uploadTimeout = 2 * time.Minute

// GCSArchive writes raw documents under raw/{tenant}/ in a single bucket.
type GCSArchive struct {
	client *storage.Client
	bucket string
}

// NewGCSArchive creates a storage client using Application Default Credentials.
func NewGCSArchive(ctx context.Context, bucket string) (*GCSArchive, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSArchive: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSArchive{client: client, bucket: bucket}, nil
}

// Close releases the underlying storage client.
func (a *GCSArchive) Close() error {
	return a.client.Close()
}

func (a *GCSArchive) Put(ctx context.Context, tenantID, rawHash, filename string, data []byte) (string, error) {
	objectName := ObjectName(tenantID, rawHash, filename)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentTypeFor(filename)
	w.Metadata = map[string]string{
		"tenant_id": tenantID,
		"raw_hash":  rawHash,
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy raw statement to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return "gs://" + a.bucket + "/" + objectName, nil
}

func (a *GCSArchive) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	rc, err := a.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("fetch: reading bytes: %w", err)
	}
	return data, nil
}

// ObjectName builds raw/{tenant}/{hash}-{filename}. Path separators in the tenant or
// filename are flattened so one tenant cannot write into another's prefix.
func ObjectName(tenantID, rawHash, filename string) string {
	tenant := sanitizeSegment(tenantID)
	if tenant == "" {
		tenant = "unknown"
	}
	name := sanitizeSegment(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	if name == "" || name == "." {
		name = "statement"
	}
	return fmt.Sprintf("raw/%s/%s-%s", tenant, rawHash, name)
}

// ParseGCSURI splits gs://bucket/path/to/object into its bucket and object path.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// ExtractFilename returns the last path element of a GCS URI.
// e.g., "gs://bucket/raw/t1/abc-file.pdf" → "abc-file.pdf"
func ExtractFilename(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
