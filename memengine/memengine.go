// Package memengine is an in-memory implementation of the engine
// capability surface: named versioned databases, a single upgrade
// transaction per version change with whole-database rollback, and
// per-store reader/writer locking so readonly transactions run
// concurrently while readwrite transactions over overlapping stores
// serialize.
package memengine

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"burrow/engine"
)

type Engine struct {
	mu  sync.Mutex
	dbs map[string]*database
}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{dbs: make(map[string]*database)}
}

func (e *Engine) Open(name string, version uint64, onUpgrade engine.UpgradeFunc) (engine.Conn, error) {
	if name == "" {
		return nil, errors.New("memengine: empty database name")
	}

	e.mu.Lock()
	db, ok := e.dbs[name]
	if !ok {
		db = newDatabase(name)
		e.dbs[name] = db
	}
	e.mu.Unlock()

	db.mu.Lock()
	defer db.mu.Unlock()

	current := db.version
	requested := version
	if requested == 0 {
		if current == 0 {
			requested = 1
		} else {
			requested = current
		}
	}

	if requested < current {
		return nil, engine.Fail(engine.VersionError, "open",
			"requested version %d is below current version %d", requested, current)
	}

	if requested > current {
		if err := db.upgrade(current, requested, onUpgrade); err != nil {
			return nil, err
		}
	}

	return &conn{db: db}, nil
}

func (e *Engine) DeleteDatabase(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.dbs, name)
	return nil
}

// upgrade runs the version-change unit: it snapshots the database,
// grabs every store lock so no transaction is in flight, hands the
// upgrade transaction to the callback and either commits the new
// version or restores the snapshot. Caller holds db.mu.
func (db *database) upgrade(oldVersion, newVersion uint64, onUpgrade engine.UpgradeFunc) error {
	names := db.storeNames()
	held := make([]*sync.RWMutex, 0, len(names))
	for _, n := range names {
		l := db.locks[n]
		l.Lock()
		held = append(held, l)
	}
	defer func() {
		for _, l := range held {
			l.Unlock()
		}
	}()

	snap := db.snapshot()

	utx := &upgradeTx{mtx: mtx{db: db, mode: engine.ReadWrite, upgrade: true}}
	var err error
	if onUpgrade != nil {
		err = onUpgrade(utx, oldVersion, newVersion)
	}
	utx.done = true
	if err != nil {
		db.restore(snap)
		return err
	}

	db.version = newVersion
	return nil
}

// conn is one handle to a database. Independent opens of the same name
// produce independent handles over the same state.
type conn struct {
	db *database

	mu     sync.Mutex
	closed bool
}

var _ engine.Conn = (*conn)(nil)

func (c *conn) Name() string { return c.db.name }

func (c *conn) Version() uint64 {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	return c.db.version
}

func (c *conn) StoreNames() []string {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	return c.db.storeNames()
}

func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *conn) Transaction(stores []string, mode engine.Mode) (engine.Tx, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, engine.Fail(engine.InvalidStateError, "transaction", "connection is closed")
	}
	c.mu.Unlock()

	if mode != engine.ReadOnly && mode != engine.ReadWrite {
		return nil, errors.Errorf("memengine: invalid transaction mode %q", mode)
	}
	if len(stores) == 0 {
		return nil, engine.Fail(engine.InvalidAccessError, "transaction", "empty store set")
	}

	names := dedupe(stores)

	db := c.db
	db.mu.Lock()
	resolved := make(map[string]*mstore, len(names))
	locks := make([]*sync.RWMutex, 0, len(names))
	for _, n := range names {
		s, ok := db.stores[n]
		if !ok {
			db.mu.Unlock()
			return nil, engine.Fail(engine.NotFoundError, "transaction", "store %q does not exist", n)
		}
		resolved[n] = s
		locks = append(locks, db.locks[n])
	}
	db.mu.Unlock()

	// locks are taken in sorted store-name order, which keeps
	// overlapping transactions deadlock-free
	for _, l := range locks {
		if mode == engine.ReadWrite {
			l.Lock()
		} else {
			l.RLock()
		}
	}

	t := &mtx{
		db:     db,
		mode:   mode,
		names:  names,
		stores: resolved,
		locks:  locks,
	}
	if mode == engine.ReadWrite {
		t.snaps = make(map[string]*mstore, len(names))
		for n, s := range resolved {
			t.snaps[n] = s.clone()
		}
	}
	return t, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
