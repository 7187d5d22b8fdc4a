package scope

import (
	"github.com/samber/mo"
	"gopkg.in/mgo.v2/bson"

	"burrow/berr"
	"burrow/codec"
	"burrow/engine"
	"burrow/ikey"
)

// Index is the read-only proxy for a secondary index of a store within
// the same scope.
type Index struct {
	store *ObjectStore
	name  string
}

func (ix *Index) Name() string { return ix.name }

func (ix *Index) resolve() (engine.Index, error) {
	st, err := ix.store.sc.useStore(ix.store.name)
	if err != nil {
		return nil, err
	}
	native, err := st.Index(ix.name)
	if err != nil {
		return nil, berr.ClassifyOperation(ix.store.name, "index", err)
	}
	return native, nil
}

func (ix *Index) Get(key ikey.Key) (mo.Option[bson.M], error) {
	doc, ok, err := ix.getDoc(key)
	if err != nil || !ok {
		return mo.None[bson.M](), err
	}
	m, err := codec.AsMap(doc)
	if err != nil {
		return mo.None[bson.M](), berr.NewDefect(err)
	}
	return mo.Some(m), nil
}

func (ix *Index) getDoc(key ikey.Key) ([]byte, bool, error) {
	idx, err := ix.resolve()
	if err != nil {
		return nil, false, err
	}
	doc, ok, err := idx.Get(key)
	if err != nil {
		return nil, false, berr.ClassifyIndexOperation(ix.store.name, ix.name, "get", err)
	}
	return doc, ok, nil
}

// GetKey returns the primary key of the first record matching the
// indexed value.
func (ix *Index) GetKey(key ikey.Key) (mo.Option[ikey.Key], error) {
	idx, err := ix.resolve()
	if err != nil {
		return mo.None[ikey.Key](), err
	}
	pk, ok, err := idx.GetKey(key)
	if err != nil {
		return mo.None[ikey.Key](), berr.ClassifyIndexOperation(ix.store.name, ix.name, "getKey", err)
	}
	if !ok {
		return mo.None[ikey.Key](), nil
	}
	return mo.Some(pk), nil
}

func (ix *Index) GetAll(r ikey.Range, limit mo.Option[int]) ([]bson.M, error) {
	docs, err := ix.getAllDocs(r, limit)
	if err != nil {
		return nil, err
	}
	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		m, err := codec.AsMap(doc)
		if err != nil {
			return nil, berr.NewDefect(err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (ix *Index) getAllDocs(r ikey.Range, limit mo.Option[int]) ([][]byte, error) {
	n, err := checkLimit("getAll", limit)
	if err != nil {
		return nil, err
	}
	idx, err := ix.resolve()
	if err != nil {
		return nil, err
	}
	docs, err := idx.GetAll(r, n)
	if err != nil {
		return nil, berr.ClassifyIndexOperation(ix.store.name, ix.name, "getAll", err)
	}
	return docs, nil
}

func (ix *Index) GetAllKeys(r ikey.Range, limit mo.Option[int]) ([]ikey.Key, error) {
	n, err := checkLimit("getAllKeys", limit)
	if err != nil {
		return nil, err
	}
	idx, err := ix.resolve()
	if err != nil {
		return nil, err
	}
	keys, err := idx.GetAllKeys(r, n)
	if err != nil {
		return nil, berr.ClassifyIndexOperation(ix.store.name, ix.name, "getAllKeys", err)
	}
	return keys, nil
}

func (ix *Index) Count(r ikey.Range) (int, error) {
	idx, err := ix.resolve()
	if err != nil {
		return 0, err
	}
	n, err := idx.Count(r)
	if err != nil {
		return 0, berr.ClassifyIndexOperation(ix.store.name, ix.name, "count", err)
	}
	return n, nil
}
