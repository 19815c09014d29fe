package gcsuploader

import (
	"context"
)

// RawArchive stores the original statement bytes so extractions can be audited or replayed.
type RawArchive interface {
	// Put stores data and returns its gs:// URI. An empty URI means nothing was stored.
	Put(ctx context.Context, tenantID, rawHash, filename string, data []byte) (string, error)

	// Fetch downloads the bytes behind a URI returned by Put.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// NopArchive discards uploads. It is used when no bucket is configured.
type NopArchive struct{}

func (NopArchive) Put(context.Context, string, string, string, []byte) (string, error) {
	return "", nil
}

func (NopArchive) Fetch(_ context.Context, uri string) ([]byte, error) {
	return nil, ErrArchiveDisabled
}
