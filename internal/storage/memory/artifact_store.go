// Package memory keeps page artifacts in memory. It backs the crawler.storage
// "memory" dry-run mode and the crawl engine tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/depth-scraper/internal/crawler"
)

// ArtifactStore records artifacts keyed by the same depth/filename layout the
// filesystem store uses.
type ArtifactStore struct {
	mu        sync.RWMutex
	data      map[string][]byte
	maxDepth  int
	prepared  bool
	failPaths map[string]error
}

// NewArtifactStore creates an empty in-memory store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		data:      make(map[string][]byte),
		failPaths: make(map[string]error),
	}
}

// Key returns the logical path for url at depth.
func Key(depth int, url string) string {
	return fmt.Sprintf("%d/%s.html", depth, crawler.EncodeURLToFilename(url))
}

// PrepareDepths records the deepest prepared level.
func (s *ArtifactStore) PrepareDepths(maxDepth int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxDepth = maxDepth
	s.prepared = true
	return nil
}

// FailOn makes PutArtifact return err for url at depth.
func (s *ArtifactStore) FailOn(depth int, url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPaths[Key(depth, url)] = err
}

// PutArtifact stores a copy of the body and returns a memory:// URI.
func (s *ArtifactStore) PutArtifact(_ context.Context, artifact crawler.Artifact) (string, error) {
	key := Key(artifact.Depth, artifact.URL)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failPaths[key]; ok {
		return "", fmt.Errorf("%w: %s: %w", crawler.ErrPersist, key, err)
	}
	if s.prepared && artifact.Depth > s.maxDepth {
		return "", fmt.Errorf("%w: depth %d was not prepared", crawler.ErrPersist, artifact.Depth)
	}
	s.data[key] = append([]byte(nil), artifact.Body...)
	return "memory://" + key, nil
}

// Get returns the stored body for url at depth.
func (s *ArtifactStore) Get(depth int, url string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.data[Key(depth, url)]
	return body, ok
}

// Len returns the number of stored artifacts.
func (s *ArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
