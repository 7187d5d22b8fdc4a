package memengine

import (
	"math"

	"github.com/samber/mo"
	"gopkg.in/mgo.v2/bson"

	"burrow/codec"
	"burrow/engine"
	"burrow/ikey"
)

// storeHandle is the native store view handed out by a transaction.
type storeHandle struct {
	tx    *mtx
	store *mstore
}

var _ engine.Store = (*storeHandle)(nil)

func (h *storeHandle) check(op string, write bool) error {
	if h.tx.finished() {
		return engine.Fail(engine.TransactionInactiveError, op, "transaction already finished")
	}
	if write && h.tx.mode != engine.ReadWrite {
		return engine.Fail(engine.ReadOnlyError, op, "transaction is readonly")
	}
	return nil
}

func (h *storeHandle) Add(doc []byte, key mo.Option[ikey.Key]) (ikey.Key, error) {
	return h.write("add", doc, key, false)
}

func (h *storeHandle) Put(doc []byte, key mo.Option[ikey.Key]) (ikey.Key, error) {
	return h.write("put", doc, key, true)
}

func (h *storeHandle) write(op string, doc []byte, explicit mo.Option[ikey.Key], overwrite bool) (ikey.Key, error) {
	if err := h.check(op, true); err != nil {
		return ikey.Key{}, err
	}

	m, err := codec.AsMap(doc)
	if err != nil {
		return ikey.Key{}, engine.Fail(engine.DataError, op, "undecodable document: %v", err)
	}

	k, doc, m, err := h.resolveKey(op, doc, m, explicit)
	if err != nil {
		return ikey.Key{}, err
	}

	enc := k.Encode()
	_, exists := h.store.recs.Get(enc)
	if exists && !overwrite {
		return ikey.Key{}, engine.Fail(engine.ConstraintError, op, "key already exists")
	}

	// compute the new entries up front so constraint checks run
	// before anything is written
	newEntries := make(map[string][]ikey.Key, len(h.store.indexes))
	for name, idx := range h.store.indexes {
		ks := indexKeys(m, idx.def)
		newEntries[name] = ks
		if !idx.def.Unique {
			continue
		}
		for _, ik := range ks {
			rng := idx.entries.Range(ik.Encode())
			for rng.Next() {
				_, e := rng.Value()
				if !e.pk.Equal(k) {
					return ikey.Key{}, engine.Fail(engine.ConstraintError, op,
						"unique index %q already has key %v", idx.def.Name, ik.Value())
				}
			}
		}
	}

	if exists {
		h.dropEntries(enc)
	}

	h.store.recs.Set(enc, doc)
	h.store.keys.Set(enc, k)
	for name, ks := range newEntries {
		idx := h.store.indexes[name]
		for _, ik := range ks {
			idx.entries.Set(ik.Encode()+enc, entry{idx: ik, pk: k})
		}
	}
	return k, nil
}

// resolveKey applies the engine's key resolution order: an explicit
// key (only for out-of-line stores), then the store key path, then the
// auto-increment sequence. When a generated key lands in a key-path
// store, it is injected into the document, which is re-encoded.
func (h *storeHandle) resolveKey(op string, doc []byte, m bson.M, explicit mo.Option[ikey.Key]) (ikey.Key, []byte, bson.M, error) {
	def := h.store.def

	if ek, ok := explicit.Get(); ok {
		if !def.KeyPath.IsZero() {
			return ikey.Key{}, nil, nil, engine.Fail(engine.DataError, op,
				"store %q uses in-line keys, explicit key not allowed", def.Name)
		}
		h.bumpSeq(ek)
		return ek, doc, m, nil
	}

	if !def.KeyPath.IsZero() {
		if k, ok := extractKey(m, def.KeyPath); ok {
			h.bumpSeq(k)
			return k, doc, m, nil
		}
		if def.AutoIncrement && !def.KeyPath.IsComposite() {
			h.store.seq++
			n := int64(h.store.seq)
			injectKey(m, def.KeyPath.Paths()[0], n)
			reenc, err := codec.Document(m)
			if err != nil {
				return ikey.Key{}, nil, nil, engine.Fail(engine.DataError, op,
					"re-encoding document with generated key: %v", err)
			}
			return ikey.Num(n), reenc, m, nil
		}
		return ikey.Key{}, nil, nil, engine.Fail(engine.DataError, op,
			"document yields no key for path %s", def.KeyPath)
	}

	if def.AutoIncrement {
		h.store.seq++
		return ikey.Num(int64(h.store.seq)), doc, m, nil
	}
	return ikey.Key{}, nil, nil, engine.Fail(engine.DataError, op,
		"store %q has no key path and no key was given", def.Name)
}

// bumpSeq keeps the auto-increment sequence ahead of explicitly
// supplied numeric keys.
func (h *storeHandle) bumpSeq(k ikey.Key) {
	if !h.store.def.AutoIncrement || k.Type() != ikey.TypeNumber {
		return
	}
	n, ok := k.Value().(int64)
	if !ok {
		f, _ := k.Value().(float64)
		n = int64(math.Floor(f))
	}
	if n > 0 && uint64(n) > h.store.seq {
		h.store.seq = uint64(n)
	}
}

// dropEntries removes every index entry contributed by the record
// currently stored under enc.
func (h *storeHandle) dropEntries(enc string) {
	old, ok := h.store.recs.Get(enc)
	if !ok {
		return
	}
	m, err := codec.AsMap(old)
	if err != nil {
		return
	}
	for _, idx := range h.store.indexes {
		for _, ik := range indexKeys(m, idx.def) {
			idx.entries.Del(ik.Encode() + enc)
		}
	}
}

func (h *storeHandle) Get(key ikey.Key) ([]byte, bool, error) {
	if err := h.check("get", false); err != nil {
		return nil, false, err
	}
	if key.IsZero() {
		return nil, false, engine.Fail(engine.DataError, "get", "invalid key")
	}
	doc, ok := h.store.recs.Get(key.Encode())
	return doc, ok, nil
}

func (h *storeHandle) GetAll(r ikey.Range, limit int) ([][]byte, error) {
	if err := h.check("getAll", false); err != nil {
		return nil, err
	}
	var out [][]byte
	rng := h.store.keys.Range("")
	for rng.Next() {
		enc, k := rng.Value()
		if !r.Contains(k) {
			continue
		}
		doc, _ := h.store.recs.Get(enc)
		out = append(out, doc)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (h *storeHandle) GetAllKeys(r ikey.Range, limit int) ([]ikey.Key, error) {
	if err := h.check("getAllKeys", false); err != nil {
		return nil, err
	}
	var out []ikey.Key
	rng := h.store.keys.Range("")
	for rng.Next() {
		_, k := rng.Value()
		if !r.Contains(k) {
			continue
		}
		out = append(out, k)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (h *storeHandle) Count(r ikey.Range) (int, error) {
	if err := h.check("count", false); err != nil {
		return 0, err
	}
	count := 0
	rng := h.store.keys.Range("")
	for rng.Next() {
		_, k := rng.Value()
		if r.Contains(k) {
			count++
		}
	}
	return count, nil
}

func (h *storeHandle) Delete(r ikey.Range) error {
	if err := h.check("delete", true); err != nil {
		return err
	}
	if r.Lower.IsAbsent() && r.Upper.IsAbsent() {
		return engine.Fail(engine.DataError, "delete", "delete requires a key or a bounded range")
	}

	var hit []string
	rng := h.store.keys.Range("")
	for rng.Next() {
		enc, k := rng.Value()
		if r.Contains(k) {
			hit = append(hit, enc)
		}
	}
	for _, enc := range hit {
		h.dropEntries(enc)
		h.store.recs.Del(enc)
		h.store.keys.Del(enc)
	}
	return nil
}

func (h *storeHandle) Clear() error {
	if err := h.check("clear", true); err != nil {
		return err
	}
	fresh := newStore(h.store.liveDef())
	h.store.recs = fresh.recs
	h.store.keys = fresh.keys
	for _, idx := range h.store.indexes {
		idx.entries = newIndex(idx.def).entries
	}
	// the key generator deliberately survives a clear
	return nil
}

func (h *storeHandle) Index(name string) (engine.Index, error) {
	if err := h.check("index", false); err != nil {
		return nil, err
	}
	idx, ok := h.store.indexes[name]
	if !ok {
		return nil, engine.Fail(engine.NotFoundError, "index", "store %q has no index %q", h.store.def.Name, name)
	}
	return &indexHandle{tx: h.tx, store: h.store, idx: idx}, nil
}
