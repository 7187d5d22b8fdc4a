package scope

import (
	"github.com/samber/mo"
	"gopkg.in/mgo.v2/bson"

	"burrow/berr"
	"burrow/codec"
	"burrow/engine"
	"burrow/ikey"
)

// ObjectStore is the per-scope store proxy. Every operation resolves
// the native store through the owning scope, which opens the scope's
// transaction on first use.
type ObjectStore struct {
	name string
	sc   *Scope
}

func (os *ObjectStore) Name() string { return os.name }

// Add inserts a record and returns the key it was stored under.
func (os *ObjectStore) Add(record any) (ikey.Key, error) {
	return os.writeDoc("add", record, mo.None[ikey.Key]())
}

// AddKeyed inserts under an explicit key (out-of-line key stores).
func (os *ObjectStore) AddKeyed(record any, key ikey.Key) (ikey.Key, error) {
	return os.writeDoc("add", record, mo.Some(key))
}

func (os *ObjectStore) Put(record any) (ikey.Key, error) {
	return os.writeDoc("put", record, mo.None[ikey.Key]())
}

func (os *ObjectStore) PutKeyed(record any, key ikey.Key) (ikey.Key, error) {
	return os.writeDoc("put", record, mo.Some(key))
}

func (os *ObjectStore) writeDoc(op string, record any, key mo.Option[ikey.Key]) (ikey.Key, error) {
	doc, err := codec.Document(record)
	if err != nil {
		return ikey.Key{}, berr.ClassifyOperation(os.name, op,
			engine.Fail(engine.DataCloneError, op, "record is not serializable: %v", err))
	}
	return os.addEncoded(op, doc, key)
}

// addEncoded is the entry point for typed views, which encode records
// themselves.
func (os *ObjectStore) addEncoded(op string, doc []byte, key mo.Option[ikey.Key]) (ikey.Key, error) {
	st, err := os.sc.useStore(os.name)
	if err != nil {
		return ikey.Key{}, err
	}
	var k ikey.Key
	if op == "add" {
		k, err = st.Add(doc, key)
	} else {
		k, err = st.Put(doc, key)
	}
	if err != nil {
		return ikey.Key{}, berr.ClassifyOperation(os.name, op, err)
	}
	return k, nil
}

func (os *ObjectStore) Get(key ikey.Key) (mo.Option[bson.M], error) {
	doc, ok, err := os.getDoc(key)
	if err != nil || !ok {
		return mo.None[bson.M](), err
	}
	m, err := codec.AsMap(doc)
	if err != nil {
		return mo.None[bson.M](), berr.NewDefect(err)
	}
	return mo.Some(m), nil
}

func (os *ObjectStore) getDoc(key ikey.Key) ([]byte, bool, error) {
	st, err := os.sc.useStore(os.name)
	if err != nil {
		return nil, false, err
	}
	doc, ok, err := st.Get(key)
	if err != nil {
		return nil, false, berr.ClassifyOperation(os.name, "get", err)
	}
	return doc, ok, nil
}

// GetAll returns records in key order. A negative limit is a caller
// bug and surfaces as a defect, not a typed error.
func (os *ObjectStore) GetAll(r ikey.Range, limit mo.Option[int]) ([]bson.M, error) {
	docs, err := os.getAllDocs(r, limit)
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

func (os *ObjectStore) getAllDocs(r ikey.Range, limit mo.Option[int]) ([][]byte, error) {
	n, err := checkLimit("getAll", limit)
	if err != nil {
		return nil, err
	}
	st, err := os.sc.useStore(os.name)
	if err != nil {
		return nil, err
	}
	docs, err := st.GetAll(r, n)
	if err != nil {
		return nil, berr.ClassifyOperation(os.name, "getAll", err)
	}
	return docs, nil
}

func (os *ObjectStore) GetAllKeys(r ikey.Range, limit mo.Option[int]) ([]ikey.Key, error) {
	n, err := checkLimit("getAllKeys", limit)
	if err != nil {
		return nil, err
	}
	st, err := os.sc.useStore(os.name)
	if err != nil {
		return nil, err
	}
	keys, err := st.GetAllKeys(r, n)
	if err != nil {
		return nil, berr.ClassifyOperation(os.name, "getAllKeys", err)
	}
	return keys, nil
}

func (os *ObjectStore) Count(r ikey.Range) (int, error) {
	st, err := os.sc.useStore(os.name)
	if err != nil {
		return 0, err
	}
	n, err := st.Count(r)
	if err != nil {
		return 0, berr.ClassifyOperation(os.name, "count", err)
	}
	return n, nil
}

func (os *ObjectStore) Delete(key ikey.Key) error {
	return os.DeleteRange(ikey.Only(key))
}

func (os *ObjectStore) DeleteRange(r ikey.Range) error {
	st, err := os.sc.useStore(os.name)
	if err != nil {
		return err
	}
	return berr.ClassifyOperation(os.name, "delete", st.Delete(r))
}

func (os *ObjectStore) Clear() error {
	st, err := os.sc.useStore(os.name)
	if err != nil {
		return err
	}
	return berr.ClassifyOperation(os.name, "clear", st.Clear())
}

// Index returns the read-only proxy for a secondary index. The index
// itself is resolved on first operation, like the store.
func (os *ObjectStore) Index(name string) *Index {
	return &Index{store: os, name: name}
}

func checkLimit(op string, limit mo.Option[int]) (int, error) {
	n, ok := limit.Get()
	if !ok {
		return 0, nil
	}
	if n < 0 {
		return 0, berr.Defectf("%s: negative count %d", op, n)
	}
	return n, nil
}
