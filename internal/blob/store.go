// Package blob provides the blob-store collaborator: listing and downloads
// of grounding documents and dataset objects. The pipeline consumes exactly
// these two operations; document existence is checked against the cached
// file index, not the bucket.
package blob

import "context"

// Store provides read access to the document bucket.
type Store interface {
	// List returns the names of all objects in the bucket.
	List(ctx context.Context) ([]string, error)

	// Download returns the raw bytes of a named object.
	Download(ctx context.Context, name string) ([]byte, error)
}
