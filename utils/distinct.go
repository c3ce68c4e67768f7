package utils

// DistinctSet tracks keys seen so far, e.g. host ids across listings
type DistinctSet struct {
	seen map[string]struct{}
}

// NewDistinctSet creates an empty set
func NewDistinctSet() *DistinctSet {
	return &DistinctSet{seen: make(map[string]struct{})}
}

// Add returns true if the key is new (not seen before), false if duplicate
func (s *DistinctSet) Add(key string) bool {
	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Count returns the number of distinct keys
func (s *DistinctSet) Count() int {
	return len(s.seen)
}
