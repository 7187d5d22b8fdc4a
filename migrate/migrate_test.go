package migrate

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mgo.v2/bson"

	"burrow/engine"
	"burrow/ikey"
	"burrow/memengine"
	"burrow/schema"
)

// recordingUpgradeTx logs every structural operation passing through,
// so tests can assert reconciliation touched exactly what changed.
type recordingUpgradeTx struct {
	engine.UpgradeTx
	ops []string
}

func (r *recordingUpgradeTx) CreateStore(def schema.Store) error {
	r.ops = append(r.ops, "createStore:"+def.Name)
	return r.UpgradeTx.CreateStore(def)
}

func (r *recordingUpgradeTx) DeleteStore(name string) error {
	r.ops = append(r.ops, "deleteStore:"+name)
	return r.UpgradeTx.DeleteStore(name)
}

func (r *recordingUpgradeTx) CreateIndex(store string, def schema.Index) error {
	r.ops = append(r.ops, "createIndex:"+store+"/"+def.Name)
	return r.UpgradeTx.CreateIndex(store, def)
}

func (r *recordingUpgradeTx) DeleteIndex(store, index string) error {
	r.ops = append(r.ops, "deleteIndex:"+store+"/"+index)
	return r.UpgradeTx.DeleteIndex(store, index)
}

func TestRunnerExecutesStepsInOrder(t *testing.T) {
	// arrange
	var order []uint64
	step := func(v uint64) Step {
		return func(tx *Tx) error {
			order = append(order, v)
			return nil
		}
	}
	plan := Plan{1: step(1), 2: step(2), 4: step(4)}
	r := NewRunner(plan, schema.Schema{}, nil)

	// act
	eng := memengine.New()
	_, err := eng.Open("db", 4, func(utx engine.UpgradeTx, old, new uint64) error {
		return r.Run(utx, old, new)
	})

	// assert: version 3 has no step and no schema, so it is a no-op
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 4}, order)
}

func TestRunnerStopsAtFailingStep(t *testing.T) {
	boom := errors.New("boom")
	var ranThree bool
	plan := Plan{
		1: func(tx *Tx) error {
			return tx.CreateObjectStore(schema.Store{Name: "s"})
		},
		2: func(tx *Tx) error { return boom },
		3: func(tx *Tx) error { ranThree = true; return nil },
	}
	r := NewRunner(plan, schema.Schema{}, nil)

	eng := memengine.New()
	_, err := eng.Open("db", 3, func(utx engine.UpgradeTx, old, new uint64) error {
		return r.Run(utx, old, new)
	})

	require.ErrorIs(t, err, boom)
	assert.False(t, ranThree)

	// the engine rolled the store from step 1 back with the upgrade
	conn, err := eng.Open("db", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, conn.StoreNames())
}

func TestUnplannedVersionsReconcileSchema(t *testing.T) {
	decl := schema.Schema{Stores: []schema.Store{{
		Name:          "contacts",
		KeyPath:       schema.Path("id"),
		AutoIncrement: true,
		Indexes: []schema.Index{
			{Name: "by_email", KeyPath: schema.Path("email"), Unique: true},
		},
	}}}
	r := NewRunner(nil, decl, nil)

	eng := memengine.New()
	conn, err := eng.Open("db", 1, func(utx engine.UpgradeTx, old, new uint64) error {
		return r.Run(utx, old, new)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"contacts"}, conn.StoreNames())

	tx, err := conn.Transaction([]string{"contacts"}, engine.ReadOnly)
	require.NoError(t, err)
	st, err := tx.Store("contacts")
	require.NoError(t, err)
	_, err = st.Index("by_email")
	assert.NoError(t, err)
	require.NoError(t, tx.Commit())
}

func TestReconciliationIsIdempotent(t *testing.T) {
	decl := schema.Schema{Stores: []schema.Store{{
		Name:    "contacts",
		KeyPath: schema.Path("id"),
		Indexes: []schema.Index{
			{Name: "by_email", KeyPath: schema.Path("email")},
		},
	}}}
	r := NewRunner(nil, decl, nil)

	eng := memengine.New()
	_, err := eng.Open("db", 1, func(utx engine.UpgradeTx, old, new uint64) error {
		return r.Run(utx, old, new)
	})
	require.NoError(t, err)

	// act: a second reconciliation over an already matching structure
	var rec *recordingUpgradeTx
	_, err = eng.Open("db", 2, func(utx engine.UpgradeTx, old, new uint64) error {
		rec = &recordingUpgradeTx{UpgradeTx: utx}
		return r.Run(rec, old, new)
	})
	require.NoError(t, err)

	// assert: nothing to do
	assert.Empty(t, rec.ops)
}

func TestReconciliationRecreatesChangedIndex(t *testing.T) {
	v1 := schema.Schema{Stores: []schema.Store{{
		Name:    "contacts",
		KeyPath: schema.Path("id"),
		Indexes: []schema.Index{
			{Name: "by_email", KeyPath: schema.Path("email")},
			{Name: "by_name", KeyPath: schema.Path("name")},
		},
	}}}
	eng := memengine.New()
	_, err := eng.Open("db", 1, func(utx engine.UpgradeTx, old, new uint64) error {
		return NewRunner(nil, v1, nil).Run(utx, old, new)
	})
	require.NoError(t, err)

	// v2: by_email becomes unique, by_name is no longer declared
	v2 := schema.Schema{Stores: []schema.Store{{
		Name:    "contacts",
		KeyPath: schema.Path("id"),
		Indexes: []schema.Index{
			{Name: "by_email", KeyPath: schema.Path("email"), Unique: true},
		},
	}}}

	var rec *recordingUpgradeTx
	_, err = eng.Open("db", 2, func(utx engine.UpgradeTx, old, new uint64) error {
		rec = &recordingUpgradeTx{UpgradeTx: utx}
		return NewRunner(nil, v2, nil).Run(rec, old, new)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"deleteIndex:contacts/by_email",
		"createIndex:contacts/by_email",
		"deleteIndex:contacts/by_name",
	}, rec.ops)
}

func TestStepHasDataAccess(t *testing.T) {
	plan := Plan{
		1: func(tx *Tx) error {
			return tx.CreateObjectStore(schema.Store{
				Name:          "contacts",
				KeyPath:       schema.Path("id"),
				AutoIncrement: true,
			})
		},
		// seed migration: data written through the upgrade transaction
		2: func(tx *Tx) error {
			st, err := tx.Store("contacts")
			if err != nil {
				return err
			}
			_, err = st.Add(bson.M{"email": "seed@example.com"})
			return err
		},
	}
	r := NewRunner(plan, schema.Schema{}, nil)

	eng := memengine.New()
	conn, err := eng.Open("db", 2, func(utx engine.UpgradeTx, old, new uint64) error {
		return r.Run(utx, old, new)
	})
	require.NoError(t, err)

	tx, err := conn.Transaction([]string{"contacts"}, engine.ReadOnly)
	require.NoError(t, err)
	st, err := tx.Store("contacts")
	require.NoError(t, err)
	n, err := st.Count(ikey.All())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, tx.Commit())
}
