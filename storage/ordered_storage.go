package storage

import (
	"strings"

	"github.com/zhangyunhao116/skipmap"
)

// skip-list backed storage; Range iterates in ascending key order for
// free, which record storage relies on
type orderedStorage[V any] struct {
	inner *skipmap.StringMap[V]
}

func NewOrderedStorage[V any]() *orderedStorage[V] {
	return &orderedStorage[V]{skipmap.NewString[V]()}
}

func (s *orderedStorage[V]) Get(key string) (V, bool) {
	return s.inner.Load(key)
}

func (s *orderedStorage[V]) Set(key string, value V) {
	s.inner.Store(key, value)
}

func (s *orderedStorage[V]) Del(key string) {
	s.inner.Delete(key)
}

func (s *orderedStorage[V]) Range(prefix string) Range[string, V] {
	// the skipmap offers no seek, so collect matches up front;
	// engine stores are small enough for this to be a non-issue
	var keys []string
	var vals []V
	s.inner.Range(func(k string, v V) bool {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
			vals = append(vals, v)
		}
		return true
	})
	return &sliceRange[V]{keys: keys, vals: vals}
}

func (s *orderedStorage[V]) Len() int {
	return s.inner.Len()
}

func (s *orderedStorage[V]) ToMap() map[string]V {
	out := make(map[string]V)
	s.inner.Range(func(k string, v V) bool {
		out[k] = v
		return true
	})
	return out
}

func (s *orderedStorage[V]) Clone() Storage[V] {
	clone := skipmap.NewString[V]()
	s.inner.Range(func(k string, v V) bool {
		clone.Store(k, v)
		return true
	})
	return &orderedStorage[V]{clone}
}

type sliceRange[V any] struct {
	keys []string
	vals []V
	curr int
}

func (r *sliceRange[V]) Next() bool {
	return r.curr < len(r.keys)
}

func (r *sliceRange[V]) Value() (string, V) {
	k, v := r.keys[r.curr], r.vals[r.curr]
	r.curr++
	return k, v
}
