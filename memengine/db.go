package memengine

import (
	"sort"
	"sync"

	"burrow/ikey"
	"burrow/schema"
	"burrow/storage"
)

// database is the engine-side state of one named database. mu guards
// the version and the store map; it is additionally held for the whole
// duration of a version upgrade, so connections opened concurrently
// with an upgrade wait for it to finish.
type database struct {
	name string

	mu      sync.Mutex
	version uint64
	stores  map[string]*mstore
	// one lock per store; readonly transactions share it, readwrite
	// transactions hold it exclusively
	locks map[string]*sync.RWMutex
}

func newDatabase(name string) *database {
	return &database{
		name:   name,
		stores: make(map[string]*mstore),
		locks:  make(map[string]*sync.RWMutex),
	}
}

// mstore is one object store: documents keyed by the order-preserving
// key encoding, a parallel key table for iteration, and its indexes.
type mstore struct {
	def  schema.Store // Indexes field mirrors the indexes map
	seq  uint64
	recs storage.Storage[[]byte]
	keys storage.Storage[ikey.Key]

	indexes map[string]*mindex
}

// mindex holds entries keyed encodedIndexKey+encodedPrimaryKey. Key
// encodings are prefix-free, so a prefix scan by the index key part
// selects exactly that key's entries.
type mindex struct {
	def     schema.Index
	entries storage.Storage[entry]
}

type entry struct {
	idx ikey.Key // the indexed value
	pk  ikey.Key // the record's primary key
}

func newStore(def schema.Store) *mstore {
	def.Indexes = nil
	return &mstore{
		def:     def,
		recs:    storage.NewOrderedStorage[[]byte](),
		keys:    storage.NewOrderedStorage[ikey.Key](),
		indexes: make(map[string]*mindex),
	}
}

func newIndex(def schema.Index) *mindex {
	return &mindex{
		def:     def,
		entries: storage.NewPrefixTreeStorage[entry](),
	}
}

// liveDef reports the store definition as it currently stands,
// indexes sorted by name.
func (s *mstore) liveDef() schema.Store {
	def := s.def
	def.Indexes = make([]schema.Index, 0, len(s.indexes))
	for _, idx := range s.indexes {
		def.Indexes = append(def.Indexes, idx.def)
	}
	sort.Slice(def.Indexes, func(i, j int) bool {
		return def.Indexes[i].Name < def.Indexes[j].Name
	})
	return def
}

func (s *mstore) clone() *mstore {
	out := &mstore{
		def:     s.def,
		seq:     s.seq,
		recs:    s.recs.Clone(),
		keys:    s.keys.Clone(),
		indexes: make(map[string]*mindex, len(s.indexes)),
	}
	for name, idx := range s.indexes {
		out.indexes[name] = &mindex{def: idx.def, entries: idx.entries.Clone()}
	}
	return out
}

// snapshot of a whole database, taken before an upgrade runs; restore
// puts everything back if the upgrade fails.
type dbSnap struct {
	version uint64
	stores  map[string]*mstore
}

// caller holds db.mu
func (db *database) snapshot() dbSnap {
	stores := make(map[string]*mstore, len(db.stores))
	for name, s := range db.stores {
		stores[name] = s.clone()
	}
	return dbSnap{version: db.version, stores: stores}
}

// caller holds db.mu
func (db *database) restore(snap dbSnap) {
	db.version = snap.version
	db.stores = snap.stores
	for name := range db.locks {
		if _, ok := db.stores[name]; !ok {
			delete(db.locks, name)
		}
	}
	for name := range db.stores {
		if _, ok := db.locks[name]; !ok {
			db.locks[name] = &sync.RWMutex{}
		}
	}
}

// caller holds db.mu
func (db *database) storeNames() []string {
	names := make([]string, 0, len(db.stores))
	for name := range db.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
