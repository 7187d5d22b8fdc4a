package memengine

import (
	"burrow/engine"
	"burrow/ikey"
)

// indexHandle reads a secondary index. Entries iterate ordered by
// indexed value, then by primary key, which is the order the entry
// keys encode.
type indexHandle struct {
	tx    *mtx
	store *mstore
	idx   *mindex
}

var _ engine.Index = (*indexHandle)(nil)

func (h *indexHandle) first(op string, key ikey.Key) (entry, bool, error) {
	if err := h.check(op); err != nil {
		return entry{}, false, err
	}
	if key.IsZero() {
		return entry{}, false, engine.Fail(engine.DataError, op, "invalid key")
	}
	rng := h.idx.entries.Range(key.Encode())
	if !rng.Next() {
		return entry{}, false, nil
	}
	_, e := rng.Value()
	return e, true, nil
}

func (h *indexHandle) check(op string) error {
	if h.tx.finished() {
		return engine.Fail(engine.TransactionInactiveError, op, "transaction already finished")
	}
	return nil
}

func (h *indexHandle) Get(key ikey.Key) ([]byte, bool, error) {
	e, ok, err := h.first("get", key)
	if err != nil || !ok {
		return nil, false, err
	}
	doc, ok := h.store.recs.Get(e.pk.Encode())
	return doc, ok, nil
}

func (h *indexHandle) GetKey(key ikey.Key) (ikey.Key, bool, error) {
	e, ok, err := h.first("getKey", key)
	if err != nil || !ok {
		return ikey.Key{}, false, err
	}
	return e.pk, true, nil
}

func (h *indexHandle) GetAll(r ikey.Range, limit int) ([][]byte, error) {
	if err := h.check("getAll"); err != nil {
		return nil, err
	}
	var out [][]byte
	rng := h.idx.entries.Range("")
	for rng.Next() {
		_, e := rng.Value()
		if !r.Contains(e.idx) {
			continue
		}
		doc, ok := h.store.recs.Get(e.pk.Encode())
		if !ok {
			continue
		}
		out = append(out, doc)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (h *indexHandle) GetAllKeys(r ikey.Range, limit int) ([]ikey.Key, error) {
	if err := h.check("getAllKeys"); err != nil {
		return nil, err
	}
	var out []ikey.Key
	rng := h.idx.entries.Range("")
	for rng.Next() {
		_, e := rng.Value()
		if !r.Contains(e.idx) {
			continue
		}
		out = append(out, e.pk)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (h *indexHandle) Count(r ikey.Range) (int, error) {
	if err := h.check("count"); err != nil {
		return 0, err
	}
	count := 0
	rng := h.idx.entries.Range("")
	for rng.Next() {
		_, e := rng.Value()
		if r.Contains(e.idx) {
			count++
		}
	}
	return count, nil
}
