package memengine

import (
	"sync"

	"burrow/engine"
)

// mtx is one native transaction: a fixed store set, a fixed mode and,
// for readwrite, a per-store snapshot that Abort restores. The store
// locks are held from creation until Commit or Abort.
type mtx struct {
	db     *database
	mode   engine.Mode
	names  []string
	stores map[string]*mstore
	snaps  map[string]*mstore
	locks  []*sync.RWMutex

	// upgrade transactions bypass store locks (the upgrade holds
	// every lock already) and roll back via the database snapshot
	// instead of per-store ones
	upgrade bool

	mu   sync.Mutex
	done bool
}

var _ engine.Tx = (*mtx)(nil)

func (t *mtx) finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

func (t *mtx) Store(name string) (engine.Store, error) {
	if t.finished() {
		return nil, engine.Fail(engine.TransactionInactiveError, "objectStore", "transaction already finished")
	}

	if t.upgrade {
		// mid-upgrade the store set is whatever currently exists;
		// db.mu is held by the upgrade itself for its whole duration,
		// so the map is safe to read directly
		s, ok := t.db.stores[name]
		if !ok {
			return nil, engine.Fail(engine.NotFoundError, "objectStore", "store %q does not exist", name)
		}
		return &storeHandle{tx: t, store: s}, nil
	}

	s, ok := t.stores[name]
	if !ok {
		return nil, engine.Fail(engine.NotFoundError, "objectStore", "store %q is not part of this transaction", name)
	}
	return &storeHandle{tx: t, store: s}, nil
}

func (t *mtx) Commit() error {
	if t.upgrade {
		return engine.Fail(engine.InvalidStateError, "commit", "upgrade transactions are finalized by the engine")
	}

	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return engine.Fail(engine.TransactionInactiveError, "commit", "transaction already finished")
	}
	t.done = true
	t.mu.Unlock()

	t.snaps = nil
	t.unlock()
	return nil
}

func (t *mtx) Abort() error {
	if t.upgrade {
		return engine.Fail(engine.InvalidStateError, "abort", "upgrade transactions are finalized by the engine")
	}

	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return engine.Fail(engine.TransactionInactiveError, "abort", "transaction already finished")
	}
	t.done = true
	t.mu.Unlock()

	// the locks are still held, so swapping the store contents back
	// is invisible to everyone else
	for name, snap := range t.snaps {
		live := t.stores[name]
		live.seq = snap.seq
		live.recs = snap.recs
		live.keys = snap.keys
		live.indexes = snap.indexes
	}
	t.snaps = nil
	t.unlock()
	return nil
}

func (t *mtx) unlock() {
	for _, l := range t.locks {
		if t.mode == engine.ReadWrite {
			l.Unlock()
		} else {
			l.RUnlock()
		}
	}
	t.locks = nil
}
