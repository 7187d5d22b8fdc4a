// Package storage provides the flat key/value substrate the in-memory
// engine keeps its records and index entries in.
package storage

type Storage[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Del(key string)
	// Range iterates entries whose key starts with prefix, in
	// ascending key order.
	Range(prefix string) Range[string, V]
	Len() int
	// Clone copies the storage entry by entry; transactions snapshot
	// store state with it before mutating.
	Clone() Storage[V]
	ToMap() map[string]V
}

type Range[K comparable, V any] interface {
	Next() bool
	Value() (K, V)
}
