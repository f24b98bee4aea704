// Package fetcher downloads upstream perimeter payloads over HTTP with
// retries, per-host rate limiting and atomic file writes.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and atomically replaces path with the
	// body. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
