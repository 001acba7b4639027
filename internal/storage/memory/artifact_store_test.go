package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/depth-scraper/internal/crawler"
)

func TestArtifactStorePutAndGet(t *testing.T) {
	t.Parallel()

	store := NewArtifactStore()
	require.NoError(t, store.PrepareDepths(1))

	uri, err := store.PutArtifact(context.Background(), crawler.Artifact{
		Depth: 1,
		URL:   "https://example.com/a!b",
		Body:  []byte("<html></html>"),
	})
	require.NoError(t, err)
	require.Equal(t, "memory://1/example_com_a_b.html", uri)

	body, ok := store.Get(1, "https://example.com/a!b")
	require.True(t, ok)
	require.Equal(t, "<html></html>", string(body))
	require.Equal(t, 1, store.Len())
}

func TestArtifactStoreRejectsUnpreparedDepth(t *testing.T) {
	t.Parallel()

	store := NewArtifactStore()
	require.NoError(t, store.PrepareDepths(0))
	_, err := store.PutArtifact(context.Background(), crawler.Artifact{Depth: 1, URL: "https://example.com"})
	require.True(t, errors.Is(err, crawler.ErrPersist))
}

func TestArtifactStoreFailOn(t *testing.T) {
	t.Parallel()

	store := NewArtifactStore()
	boom := errors.New("disk full")
	store.FailOn(0, "https://example.com", boom)
	_, err := store.PutArtifact(context.Background(), crawler.Artifact{URL: "https://example.com"})
	require.True(t, errors.Is(err, crawler.ErrPersist))
	require.True(t, errors.Is(err, boom))
	require.Zero(t, store.Len())
}
