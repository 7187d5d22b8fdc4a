package storage

import (
	"sort"
	"sync"

	"github.com/s0rg/trie"
)

// trie backed storage; cheap prefix lookups, which index-entry storage
// relies on. The trie itself is not safe for concurrent use, so a
// mutex guards it.
type prefixTreeStorage[V any] struct {
	mu    sync.RWMutex
	inner *trie.Trie[V]
	size  int
}

func NewPrefixTreeStorage[V any]() *prefixTreeStorage[V] {
	return &prefixTreeStorage[V]{inner: trie.New[V]()}
}

func (s *prefixTreeStorage[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Find(key)
}

func (s *prefixTreeStorage[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inner.Find(key); !ok {
		s.size++
	}
	s.inner.Add(key, value)
}

func (s *prefixTreeStorage[V]) Del(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inner.Find(key); !ok {
		return
	}
	s.inner.Del(key)
	s.size--
}

func (s *prefixTreeStorage[V]) Range(prefix string) Range[string, V] {
	s.mu.RLock()
	keys, _ := s.inner.Suggest(prefix)
	// Suggest gives no ordering promise
	sort.Strings(keys)
	vals := make([]V, len(keys))
	for i, k := range keys {
		vals[i], _ = s.inner.Find(k)
	}
	s.mu.RUnlock()
	return &sliceRange[V]{keys: keys, vals: vals}
}

func (s *prefixTreeStorage[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

func (s *prefixTreeStorage[V]) Clone() Storage[V] {
	clone := NewPrefixTreeStorage[V]()
	for k, v := range s.ToMap() {
		clone.Set(k, v)
	}
	return clone
}

func (s *prefixTreeStorage[V]) ToMap() map[string]V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys, _ := s.inner.Suggest("")
	out := make(map[string]V, len(keys))
	for _, k := range keys {
		v, _ := s.inner.Find(k)
		out[k] = v
	}
	return out
}
