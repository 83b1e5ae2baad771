package metadata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/testutil"
)

func seededStore() *testutil.MemoryBlobStore {
	return testutil.NewMemoryBlobStore(map[string][]byte{
		"grounding__delta-green__v1.txt": []byte("pH 12.5"),
		"grounding__ace__v1.txt":         []byte("neutral"),
		ObjectCatalogGuide:               []byte("# Catalog\nDegreasers and cleaners."),
		ObjectDeliveryZones:              []byte(`[{"zip":"33101","city":"Miami","county":"Miami-Dade"}]`),
		ObjectUseCases:                   []byte(`[{"problem":"greasy workshop floor","solution":"Delta Green 1:40"}]`),
	})
}

func TestGet_AssemblesSnapshot(t *testing.T) {
	c := NewCache(seededStore(), time.Minute, "")
	snap := c.Get(context.Background())

	assert.ElementsMatch(t, []string{"grounding__delta-green__v1.txt", "grounding__ace__v1.txt"}, snap.FileIndex)
	assert.True(t, snap.HasFile("grounding__ace__v1.txt"))
	assert.False(t, snap.HasFile(ObjectCatalogGuide), "reserved dataset objects stay out of the file index")
	assert.Contains(t, snap.CatalogGuide, "Degreasers")
	require.Len(t, snap.DeliveryZones, 1)
	assert.Equal(t, "Miami", snap.DeliveryZones[0].City)
	require.Len(t, snap.UseCases, 1)
	assert.Equal(t, "Delta Green 1:40", snap.UseCases[0].Solution)
}

func TestGet_IdempotentWithinTTL(t *testing.T) {
	c := NewCache(seededStore(), time.Minute, "")
	ctx := context.Background()

	first := c.Get(ctx)
	second := c.Get(ctx)
	assert.Same(t, first, second, "no refetch within the expiry window")
}

func TestGet_RefetchesAfterExpiry(t *testing.T) {
	c := NewCache(seededStore(), time.Minute, "")
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	first := c.Get(ctx)
	now = now.Add(2 * time.Minute)
	second := c.Get(ctx)
	assert.NotSame(t, first, second, "expired snapshot is rebuilt wholesale")
}

func TestGet_DegradesFailedSources(t *testing.T) {
	store := seededStore()
	store.FailList = true
	c := NewCache(store, time.Minute, "")

	snap := c.Get(context.Background())
	assert.Empty(t, snap.FileIndex, "failed list degrades to an empty index")
	assert.Contains(t, snap.CatalogGuide, "Degreasers", "sibling fetches are unaffected")
}

func TestGet_AllSourcesDown(t *testing.T) {
	store := testutil.NewMemoryBlobStore(nil)
	store.FailList = true
	store.FailDownload = true
	c := NewCache(store, time.Minute, "")

	snap := c.Get(context.Background())
	require.NotNil(t, snap, "degradation never fails the snapshot")
	assert.Empty(t, snap.FileIndex)
	assert.Empty(t, snap.CatalogGuide)
	assert.Empty(t, snap.DeliveryZones)
	assert.Empty(t, snap.UseCases)
}

func TestGet_FallbackGuide(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "catalog_guide.md")
	require.NoError(t, os.WriteFile(fallback, []byte("local fallback guide"), 0o600))

	store := testutil.NewMemoryBlobStore(map[string][]byte{
		"grounding__ace__v1.txt": []byte("neutral"),
	})
	c := NewCache(store, time.Minute, fallback)

	snap := c.Get(context.Background())
	assert.Equal(t, "local fallback guide", snap.CatalogGuide)
}

func TestLastFetched(t *testing.T) {
	c := NewCache(seededStore(), time.Minute, "")

	_, ok := c.LastFetched()
	assert.False(t, ok, "cold cache reports no fetch time")

	snap := c.Get(context.Background())
	fetchedAt, ok := c.LastFetched()
	assert.True(t, ok)
	assert.Equal(t, snap.FetchedAt, fetchedAt)
}

func TestInvalidate(t *testing.T) {
	c := NewCache(seededStore(), time.Minute, "")
	ctx := context.Background()

	first := c.Get(ctx)
	c.Invalidate()
	second := c.Get(ctx)
	assert.NotSame(t, first, second)
}
