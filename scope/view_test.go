package scope

import (
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"burrow/codec"
	"burrow/engine"
	"burrow/ikey"
	"burrow/memengine"
	"burrow/schema"
)

type contact struct {
	Id    int64  `bson:"id,omitempty"`
	Email string `bson:"email"`
	Name  string `bson:"name"`
}

func contactConn(t *testing.T) engine.Conn {
	t.Helper()
	eng := memengine.New()
	conn, err := eng.Open("view-test", 1, func(utx engine.UpgradeTx, _, _ uint64) error {
		def := schema.Store{Name: "contacts", KeyPath: schema.Path("id"), AutoIncrement: true}
		if err := utx.CreateStore(def); err != nil {
			return err
		}
		return utx.CreateIndex("contacts", schema.Index{Name: "by_email", KeyPath: schema.Path("email")})
	})
	require.NoError(t, err)
	return conn
}

func TestViewRoundTrip(t *testing.T) {
	conn := contactConn(t)
	sc := New(conn, engine.ReadWrite, nil)

	v, err := Use(sc, codec.NewBsonCodec[contact](), "contacts")
	require.NoError(t, err)

	// act
	k, err := v.Add(contact{Email: "rw@example.com", Name: "rwrwrw"})
	require.NoError(t, err)

	rec, ok, err := v.Get(k)
	require.NoError(t, err)
	require.True(t, ok)

	// assert: the generated key landed in the typed record
	assert.Equal(t, int64(1), rec.Id)
	assert.Equal(t, "rwrwrw", rec.Name)
	require.NoError(t, sc.Finish(nil))
}

func TestViewIndexLookup(t *testing.T) {
	conn := contactConn(t)
	sc := New(conn, engine.ReadWrite, nil)
	v, err := Use(sc, codec.NewBsonCodec[contact](), "contacts")
	require.NoError(t, err)

	_, err = v.Add(contact{Email: "a@x", Name: "first"})
	require.NoError(t, err)
	_, err = v.Add(contact{Email: "b@x", Name: "second"})
	require.NoError(t, err)

	byEmail := v.Index("by_email")

	rec, ok, err := byEmail.Get(ikey.Str("b@x"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", rec.Name)

	pk, err := byEmail.GetKey(ikey.Str("a@x"))
	require.NoError(t, err)
	k, ok := pk.Get()
	require.True(t, ok)
	assert.Equal(t, int64(1), k.Value())

	all, err := byEmail.GetAll(ikey.All(), mo.None[int]())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Name, "index order follows the indexed value")
	require.NoError(t, sc.Finish(nil))
}

func TestViewGetAllWithLimit(t *testing.T) {
	conn := contactConn(t)
	sc := New(conn, engine.ReadWrite, nil)
	v, err := Use(sc, codec.NewBsonCodec[contact](), "contacts")
	require.NoError(t, err)

	for _, e := range []string{"a@x", "b@x", "c@x"} {
		_, err = v.Add(contact{Email: e})
		require.NoError(t, err)
	}

	recs, err := v.GetAll(ikey.LowerBound(ikey.Num(2), false), mo.Some(1))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b@x", recs[0].Email)
	require.NoError(t, sc.Finish(nil))
}

func TestUseRejectsUnserializableType(t *testing.T) {
	conn := contactConn(t)
	sc := New(conn, engine.ReadWrite, nil)

	type bad struct {
		C chan int `bson:"c"`
	}
	_, err := Use(sc, codec.NewBsonCodec[bad](), "contacts")

	assert.Error(t, err)
	require.NoError(t, sc.Finish(nil))
}
