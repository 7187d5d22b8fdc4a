package scope

import (
	"fmt"

	"github.com/samber/mo"

	"burrow/berr"
	"burrow/codec"
	"burrow/engine"
	"burrow/ikey"
)

// View is a typed store view: records are encoded and decoded with the
// caller's codec instead of being handled as generic documents. The
// engine's document form is bson, so the bson codec is the one to use.
type View[R any] struct {
	os *ObjectStore
	c  codec.Codec[R]
}

// Use registers the store with the scope and returns a typed view over
// it, rejecting record types the codec cannot serialize.
func Use[R any](s *Scope, c codec.Codec[R], name string) (*View[R], error) {
	var zero R
	if _, err := c.Encode(zero); err != nil {
		return nil, fmt.Errorf("cannot create view since the record type is not serializable: %w", err)
	}
	os, err := s.Store(name)
	if err != nil {
		return nil, err
	}
	return &View[R]{os: os, c: c}, nil
}

func (v *View[R]) Name() string { return v.os.name }

func (v *View[R]) Add(record R) (ikey.Key, error) {
	return v.write("add", record, mo.None[ikey.Key]())
}

func (v *View[R]) AddKeyed(record R, key ikey.Key) (ikey.Key, error) {
	return v.write("add", record, mo.Some(key))
}

func (v *View[R]) Put(record R) (ikey.Key, error) {
	return v.write("put", record, mo.None[ikey.Key]())
}

func (v *View[R]) PutKeyed(record R, key ikey.Key) (ikey.Key, error) {
	return v.write("put", record, mo.Some(key))
}

func (v *View[R]) write(op string, record R, key mo.Option[ikey.Key]) (ikey.Key, error) {
	doc, err := v.c.Encode(record)
	if err != nil {
		return ikey.Key{}, berr.ClassifyOperation(v.os.name, op,
			engine.Fail(engine.DataCloneError, op, "record is not serializable: %v", err))
	}
	return v.os.addEncoded(op, doc, key)
}

func (v *View[R]) Get(key ikey.Key) (R, bool, error) {
	var zero R
	doc, ok, err := v.os.getDoc(key)
	if err != nil || !ok {
		return zero, false, err
	}
	rec, err := v.c.Decode(doc)
	if err != nil {
		return zero, false, berr.NewDefect(err)
	}
	return rec, true, nil
}

func (v *View[R]) GetAll(r ikey.Range, limit mo.Option[int]) ([]R, error) {
	docs, err := v.os.getAllDocs(r, limit)
	if err != nil {
		return nil, err
	}
	out := make([]R, 0, len(docs))
	for _, doc := range docs {
		rec, err := v.c.Decode(doc)
		if err != nil {
			return nil, berr.NewDefect(err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (v *View[R]) GetAllKeys(r ikey.Range, limit mo.Option[int]) ([]ikey.Key, error) {
	return v.os.GetAllKeys(r, limit)
}

func (v *View[R]) Count(r ikey.Range) (int, error) { return v.os.Count(r) }

func (v *View[R]) Delete(key ikey.Key) error { return v.os.Delete(key) }

func (v *View[R]) Clear() error { return v.os.Clear() }

// Index returns a typed index view.
func (v *View[R]) Index(name string) *IndexView[R] {
	return &IndexView[R]{ix: v.os.Index(name), c: v.c}
}

type IndexView[R any] struct {
	ix *Index
	c  codec.Codec[R]
}

func (iv *IndexView[R]) Get(key ikey.Key) (R, bool, error) {
	var zero R
	doc, ok, err := iv.ix.getDoc(key)
	if err != nil || !ok {
		return zero, false, err
	}
	rec, err := iv.c.Decode(doc)
	if err != nil {
		return zero, false, berr.NewDefect(err)
	}
	return rec, true, nil
}

func (iv *IndexView[R]) GetKey(key ikey.Key) (mo.Option[ikey.Key], error) {
	return iv.ix.GetKey(key)
}

func (iv *IndexView[R]) GetAll(r ikey.Range, limit mo.Option[int]) ([]R, error) {
	docs, err := iv.ix.getAllDocs(r, limit)
	if err != nil {
		return nil, err
	}
	out := make([]R, 0, len(docs))
	for _, doc := range docs {
		rec, err := iv.c.Decode(doc)
		if err != nil {
			return nil, berr.NewDefect(err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (iv *IndexView[R]) GetAllKeys(r ikey.Range, limit mo.Option[int]) ([]ikey.Key, error) {
	return iv.ix.GetAllKeys(r, limit)
}

func (iv *IndexView[R]) Count(r ikey.Range) (int, error) { return iv.ix.Count(r) }
