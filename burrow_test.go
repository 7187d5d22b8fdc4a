package burrow

import (
	"log/slog"
	"os"
	"testing"

	"github.com/golang-cz/devslog"
	"github.com/pkg/errors"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mgo.v2/bson"

	"burrow/berr"
	"burrow/ikey"
	"burrow/memengine"
	"burrow/migrate"
	"burrow/schema"
	"burrow/scope"
)

func contactsConfig() Config {
	return Config{
		Name:    "contacts-db",
		Version: mo.Some[uint64](1),
		Schema: schema.Schema{Stores: []schema.Store{{
			Name:          "contacts",
			KeyPath:       schema.Path("id"),
			AutoIncrement: true,
			Indexes: []schema.Index{
				{Name: "by_email", KeyPath: schema.Path("email"), Unique: true},
			},
		}}},
	}
}

func TestContactsEndToEnd(t *testing.T) {
	logOpts := &devslog.Options{HandlerOptions: &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}}
	log := slog.New(devslog.NewHandler(os.Stdout, logOpts))

	// arrange: schema reconciliation builds the store and index at v1
	eng := memengine.New()
	cfg := contactsConfig()
	cfg.Logger = log
	db, err := Open(eng, cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, uint64(1), db.Version())
	assert.Equal(t, []string{"contacts"}, db.StoreNames())

	// act: one writing unit of work
	var key ikey.Key
	err = db.Update(func(sc *scope.Scope) error {
		st, err := sc.Store("contacts")
		if err != nil {
			return err
		}
		key, err = st.Add(bson.M{"email": "rw@example.com", "name": "rwrwrw"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), key.Value())

	// assert: a readonly scope sees the record by key and by index
	err = db.View(func(sc *scope.Scope) error {
		st, err := sc.Store("contacts")
		if err != nil {
			return err
		}

		rec, err := st.Get(key)
		if err != nil {
			return err
		}
		m, ok := rec.Get()
		require.True(t, ok)
		assert.Equal(t, "rwrwrw", m["name"])

		byEmail, err := st.Index("by_email").Get(ikey.Str("rw@example.com"))
		if err != nil {
			return err
		}
		m, ok = byEmail.Get()
		require.True(t, ok)
		assert.EqualValues(t, 1, m["id"])
		return nil
	})
	require.NoError(t, err)
}

func TestOpenValidation(t *testing.T) {
	eng := memengine.New()

	_, err := Open(eng, Config{})
	assert.True(t, berr.IsOpenError(err))

	bad := Config{
		Name:   "db",
		Schema: schema.Schema{Stores: []schema.Store{{Name: "a"}, {Name: "a"}}},
	}
	_, err = Open(eng, bad)
	assert.True(t, berr.IsOpenError(err))
}

func TestOpenBelowCurrentVersion(t *testing.T) {
	eng := memengine.New()
	db, err := Open(eng, Config{Name: "db", Version: mo.Some[uint64](3)})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(eng, Config{Name: "db", Version: mo.Some[uint64](2)})

	require.True(t, berr.IsOpenError(err))
	var oe *berr.OpenError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "open", oe.Op)
}

func TestFailedMigrationRollsBackAndClassifies(t *testing.T) {
	eng := memengine.New()
	db, err := Open(eng, contactsConfig())
	require.NoError(t, err)

	// seed a record at v1
	err = db.Update(func(sc *scope.Scope) error {
		st, err := sc.Store("contacts")
		if err != nil {
			return err
		}
		_, err = st.Add(bson.M{"email": "keep@example.com"})
		return err
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// act: the v2 step mutates structure and data, then fails
	boom := errors.New("boom")
	cfg := contactsConfig()
	cfg.Version = mo.Some[uint64](2)
	cfg.Plan = migrate.Plan{
		2: func(tx *migrate.Tx) error {
			if err := tx.DeleteObjectStore("contacts"); err != nil {
				return err
			}
			return boom
		},
	}
	_, err = Open(eng, cfg)

	// assert: an OpenError for the upgrade, wrapping the step's error
	require.True(t, berr.IsOpenError(err))
	var oe *berr.OpenError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "upgrade", oe.Op)
	assert.ErrorIs(t, err, boom)

	// and the database is back at v1, data intact
	db, err = Open(eng, Config{Name: "contacts-db"})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, uint64(1), db.Version())
	err = db.View(func(sc *scope.Scope) error {
		st, err := sc.Store("contacts")
		if err != nil {
			return err
		}
		n, err := st.Count(ikey.All())
		if err != nil {
			return err
		}
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateAbortsOnBodyError(t *testing.T) {
	eng := memengine.New()
	db, err := Open(eng, contactsConfig())
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	err = db.Update(func(sc *scope.Scope) error {
		st, err := sc.Store("contacts")
		if err != nil {
			return err
		}
		if _, err := st.Add(bson.M{"email": "x@x"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = db.View(func(sc *scope.Scope) error {
		st, err := sc.Store("contacts")
		if err != nil {
			return err
		}
		n, err := st.Count(ikey.All())
		if err != nil {
			return err
		}
		assert.Equal(t, 0, n)
		return nil
	})
	require.NoError(t, err)
}

func TestParseConfig(t *testing.T) {
	// arrange
	doc := []byte(`
name: contacts-db
version: 2
stores:
  - name: contacts
    keyPath: id
    autoIncrement: true
    indexes:
      - name: by_email
        keyPath: email
        unique: true
`)

	// act
	cfg, err := ParseConfig(doc)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "contacts-db", cfg.Name)
	assert.Equal(t, mo.Some[uint64](2), cfg.Version)
	st, ok := cfg.Schema.Store("contacts")
	require.True(t, ok)
	assert.True(t, st.AutoIncrement)

	// a parsed config opens as is
	db, err := Open(memengine.New(), cfg)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, uint64(2), db.Version())
}

func TestParseConfigRejectsBadInput(t *testing.T) {
	_, err := ParseConfig([]byte(`version: 1`))
	assert.Error(t, err, "missing name")

	_, err = ParseConfig([]byte("name: db\nversion: 0\n"))
	assert.Error(t, err, "zero version")

	_, err = ParseConfig([]byte(`{`))
	assert.Error(t, err)
}
