package blob

import (
	"context"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStore implements Store on a Supabase Storage bucket.
type SupabaseStore struct {
	client *storage_go.Client
	bucket string
}

// NewSupabaseStore creates a store for the given project URL, service key,
// and bucket. projectURL is the bare project URL; the storage API path is
// appended here.
func NewSupabaseStore(projectURL, serviceKey, bucket string) *SupabaseStore {
	client := storage_go.NewClient(projectURL+"/storage/v1", serviceKey, nil)
	return &SupabaseStore{client: client, bucket: bucket}
}

// List returns the names of all objects at the bucket root.
func (s *SupabaseStore) List(ctx context.Context) ([]string, error) {
	objects, err := s.client.ListFiles(s.bucket, "", storage_go.FileSearchOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing bucket %s: %w", s.bucket, err)
	}
	names := make([]string, 0, len(objects))
	for _, o := range objects {
		names = append(names, o.Name)
	}
	return names, nil
}

// Download returns the raw bytes of a named object.
func (s *SupabaseStore) Download(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, name)
	if err != nil {
		return nil, fmt.Errorf("downloading %s from bucket %s: %w", name, s.bucket, err)
	}
	return data, nil
}

// Compile-time check that SupabaseStore implements Store.
var _ Store = (*SupabaseStore)(nil)
