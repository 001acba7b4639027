package crawler

import "sync"

// SeenSet is the Deduplicator shared by every worker of a crawl.
type SeenSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

// NewSeenSet returns an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{urls: make(map[string]struct{})}
}

// CheckAndAdd adds url and returns true if it was absent. Membership test and
// insert happen under one lock acquisition.
func (s *SeenSet) CheckAndAdd(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.urls[url]; ok {
		return false
	}
	s.urls[url] = struct{}{}
	return true
}

// Len returns the number of URLs recorded.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}
