package migrate

import (
	"log/slog"

	"burrow/berr"
	"burrow/engine"
	"burrow/schema"
	"burrow/scope"
)

// Tx is the migration-facing face of the upgrade transaction:
// structural operations plus data access to any existing store,
// everything backed by the one native upgrade transaction the engine
// allows.
type Tx struct {
	utx  engine.UpgradeTx
	decl schema.Schema
	sc   *scope.Scope
	log  *slog.Logger
}

func newTx(utx engine.UpgradeTx, decl schema.Schema, log *slog.Logger) *Tx {
	return &Tx{utx: utx, decl: decl, sc: scope.Bound(utx, log), log: log}
}

// CreateObjectStore creates the store and then each of its declared
// indexes, in order. A failing index creation surfaces as a
// store-creation error naming the store; the half-created store is the
// engine's to roll back with the rest of the upgrade.
func (t *Tx) CreateObjectStore(def schema.Store) error {
	if err := t.utx.CreateStore(def); err != nil {
		return berr.ClassifySchemaChange(def.Name, "createObjectStore", err)
	}
	for _, idx := range def.Indexes {
		if err := t.utx.CreateIndex(def.Name, idx); err != nil {
			return berr.ClassifySchemaChange(def.Name, "createObjectStore", err)
		}
	}
	t.log.Debug("created object store", "store", def.Name, "indexes", len(def.Indexes))
	return nil
}

func (t *Tx) DeleteObjectStore(name string) error {
	if err := t.utx.DeleteStore(name); err != nil {
		return berr.ClassifySchemaChange(name, "deleteObjectStore", err)
	}
	t.log.Debug("deleted object store", "store", name)
	return nil
}

func (t *Tx) CreateIndex(store string, def schema.Index) error {
	if err := t.utx.CreateIndex(store, def); err != nil {
		return berr.ClassifySchemaChange(store, "createIndex", err)
	}
	return nil
}

func (t *Tx) DeleteIndex(store, index string) error {
	if err := t.utx.DeleteIndex(store, index); err != nil {
		return berr.ClassifySchemaChange(store, "deleteIndex", err)
	}
	return nil
}

// Store gives data access to an existing store through the upgrade
// transaction; the engine forbids opening any other transaction while
// the upgrade is active.
func (t *Tx) Store(name string) (*scope.ObjectStore, error) {
	return t.sc.Store(name)
}

// Scope exposes the upgrade-bound scope, e.g. for typed views.
func (t *Tx) Scope() *scope.Scope { return t.sc }

// AutoGenerateObjectStores reconciles the live structure against the
// declared schema: missing stores are created with their indexes, a
// declared index whose key path or options differ from the live one is
// dropped and recreated, and live indexes absent from the declaration
// are deleted as deprecated. The contract is destructive: the
// declaration wins and undeclared indexes do not survive. It runs
// inside the upgrade transaction, so a failure rolls everything back.
// Records are untouched; indexes are derived data.
func (t *Tx) AutoGenerateObjectStores() error {
	for _, decl := range t.decl.Stores {
		live, ok := t.utx.StoreDef(decl.Name)
		if !ok {
			if err := t.CreateObjectStore(decl); err != nil {
				return err
			}
			continue
		}

		for _, idx := range decl.Indexes {
			cur, exists := live.Index(idx.Name)
			if exists && cur.KeyPath.Equal(idx.KeyPath) &&
				cur.Unique == idx.Unique && cur.MultiEntry == idx.MultiEntry {
				continue
			}
			if exists {
				t.log.Debug("recreating changed index", "store", decl.Name, "index", idx.Name)
				if err := t.DeleteIndex(decl.Name, idx.Name); err != nil {
					return err
				}
			} else {
				t.log.Debug("creating index", "store", decl.Name, "index", idx.Name)
			}
			if err := t.CreateIndex(decl.Name, idx); err != nil {
				return err
			}
		}

		for _, cur := range live.Indexes {
			if _, declared := decl.Index(cur.Name); !declared {
				t.log.Debug("deleting deprecated index", "store", decl.Name, "index", cur.Name)
				if err := t.DeleteIndex(decl.Name, cur.Name); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
