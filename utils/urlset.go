package utils

// URLSet tracks URLs that were already handled during a run.
// The pipeline is sequential, so no locking is needed.
type URLSet struct {
	seen  map[string]struct{}
	order []string
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	s.order = append(s.order, url)
	return true
}

// Contains returns true if the URL has already been seen.
func (s *URLSet) Contains(url string) bool {
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	return len(s.seen)
}

// Items returns the URLs in insertion order.
func (s *URLSet) Items() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
