package memengine

import (
	"sync"

	"burrow/codec"
	"burrow/engine"
	"burrow/schema"
)

// upgradeTx is the single transaction alive during a version change.
// It adds the structural operations to the usual data access; db.mu is
// held by the surrounding upgrade for its whole duration, so no extra
// locking happens here.
type upgradeTx struct {
	mtx
}

var _ engine.UpgradeTx = (*upgradeTx)(nil)

func (t *upgradeTx) guard(op string) error {
	if t.finished() {
		return engine.Fail(engine.TransactionInactiveError, op, "upgrade already finished")
	}
	return nil
}

func (t *upgradeTx) CreateStore(def schema.Store) error {
	if err := t.guard("createStore"); err != nil {
		return err
	}
	if def.Name == "" {
		return engine.Fail(engine.SyntaxError, "createStore", "empty store name")
	}
	if _, exists := t.db.stores[def.Name]; exists {
		return engine.Fail(engine.ConstraintError, "createStore", "store %q already exists", def.Name)
	}
	if def.AutoIncrement && def.KeyPath.IsComposite() {
		return engine.Fail(engine.InvalidAccessError, "createStore",
			"store %q combines autoIncrement with a composite key path", def.Name)
	}

	t.db.stores[def.Name] = newStore(def)
	t.db.locks[def.Name] = &sync.RWMutex{}
	return nil
}

func (t *upgradeTx) DeleteStore(name string) error {
	if err := t.guard("deleteStore"); err != nil {
		return err
	}
	if _, exists := t.db.stores[name]; !exists {
		return engine.Fail(engine.NotFoundError, "deleteStore", "store %q does not exist", name)
	}
	delete(t.db.stores, name)
	delete(t.db.locks, name)
	return nil
}

func (t *upgradeTx) CreateIndex(store string, def schema.Index) error {
	if err := t.guard("createIndex"); err != nil {
		return err
	}
	s, ok := t.db.stores[store]
	if !ok {
		return engine.Fail(engine.InvalidStateError, "createIndex", "store %q does not exist", store)
	}
	if def.Name == "" || def.KeyPath.IsZero() {
		return engine.Fail(engine.SyntaxError, "createIndex", "index needs a name and a key path")
	}
	if _, exists := s.indexes[def.Name]; exists {
		return engine.Fail(engine.ConstraintError, "createIndex",
			"store %q already has index %q", store, def.Name)
	}
	if def.MultiEntry && def.KeyPath.IsComposite() {
		return engine.Fail(engine.InvalidAccessError, "createIndex",
			"index %q is multiEntry with a composite key path", def.Name)
	}

	idx := newIndex(def)

	// back-fill from existing records; a unique collision fails the
	// creation as a whole
	rng := s.recs.Range("")
	for rng.Next() {
		enc, doc := rng.Value()
		m, err := codec.AsMap(doc)
		if err != nil {
			continue
		}
		pk, _ := s.keys.Get(enc)
		for _, ik := range indexKeys(m, def) {
			if def.Unique {
				if scan := idx.entries.Range(ik.Encode()); scan.Next() {
					return engine.Fail(engine.ConstraintError, "createIndex",
						"unique index %q over existing records: duplicate key %v", def.Name, ik.Value())
				}
			}
			idx.entries.Set(ik.Encode()+enc, entry{idx: ik, pk: pk})
		}
	}

	s.indexes[def.Name] = idx
	return nil
}

func (t *upgradeTx) DeleteIndex(store, index string) error {
	if err := t.guard("deleteIndex"); err != nil {
		return err
	}
	s, ok := t.db.stores[store]
	if !ok {
		return engine.Fail(engine.InvalidStateError, "deleteIndex", "store %q does not exist", store)
	}
	if _, exists := s.indexes[index]; !exists {
		return engine.Fail(engine.NotFoundError, "deleteIndex", "store %q has no index %q", store, index)
	}
	delete(s.indexes, index)
	return nil
}

func (t *upgradeTx) StoreNames() []string {
	return t.db.storeNames()
}

func (t *upgradeTx) StoreDef(name string) (schema.Store, bool) {
	s, ok := t.db.stores[name]
	if !ok {
		return schema.Store{}, false
	}
	return s.liveDef(), true
}
