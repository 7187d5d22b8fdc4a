// Package engine is the capability surface of the native object-store
// engine this layer runs on: a named, versioned database factory whose
// connections hand out transactions over declared stores. The rest of
// the module consumes nothing of the engine beyond these interfaces.
//
// Documents cross this boundary as encoded bson (see package codec),
// keys as ikey values. Domain failures are reported as *Failure with a
// discrete Kind; anything else an implementation returns is treated as
// a defect by the layers above.
package engine

import (
	"burrow/ikey"
	"burrow/schema"

	"github.com/samber/mo"
)

type Mode string

const (
	ReadOnly  Mode = "readonly"
	ReadWrite Mode = "readwrite"
)

// UpgradeFunc runs inside the version-change event, against the single
// native upgrade transaction. Returning an error aborts the upgrade
// and the engine rolls back every structural and data change made
// during it.
type UpgradeFunc func(tx UpgradeTx, oldVersion, newVersion uint64) error

type Engine interface {
	// Open connects to the named database. Version 0 means "current
	// version, or 1 for a new database". A version above the current
	// one triggers onUpgrade before Open returns.
	Open(name string, version uint64, onUpgrade UpgradeFunc) (Conn, error)

	// DeleteDatabase drops the named database entirely.
	DeleteDatabase(name string) error
}

type Conn interface {
	Name() string
	Version() uint64
	StoreNames() []string

	// Transaction opens a native transaction spanning the given
	// stores. Stores outside the set are not reachable through it.
	Transaction(stores []string, mode Mode) (Tx, error)

	Close() error
}

type Tx interface {
	Store(name string) (Store, error)
	Commit() error
	Abort() error
}

// UpgradeTx adds the structural operations only available during a
// version change.
type UpgradeTx interface {
	Tx

	CreateStore(def schema.Store) error
	DeleteStore(name string) error
	CreateIndex(store string, def schema.Index) error
	DeleteIndex(store, index string) error

	// StoreNames lists stores as they currently exist, mid-upgrade.
	StoreNames() []string
	// StoreDef reports the live definition of a store, including its
	// current indexes.
	StoreDef(name string) (schema.Store, bool)
}

type Store interface {
	// Add inserts a document; it fails if the resolved key already
	// exists. An absent explicit key falls back to the store's key
	// path, then to its auto-increment sequence. Returns the key the
	// document was stored under.
	Add(doc []byte, key mo.Option[ikey.Key]) (ikey.Key, error)

	// Put is Add with overwrite semantics.
	Put(doc []byte, key mo.Option[ikey.Key]) (ikey.Key, error)

	Get(key ikey.Key) ([]byte, bool, error)

	// GetAll returns documents in key order; limit 0 means no limit.
	GetAll(r ikey.Range, limit int) ([][]byte, error)
	GetAllKeys(r ikey.Range, limit int) ([]ikey.Key, error)

	Count(r ikey.Range) (int, error)
	Delete(r ikey.Range) error
	Clear() error

	Index(name string) (Index, error)
}

type Index interface {
	Get(key ikey.Key) ([]byte, bool, error)
	GetKey(key ikey.Key) (ikey.Key, bool, error)
	GetAll(r ikey.Range, limit int) ([][]byte, error)
	GetAllKeys(r ikey.Range, limit int) ([]ikey.Key, error)
	Count(r ikey.Range) (int, error)
}
