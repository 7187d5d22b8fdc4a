package memengine

import (
	"strings"

	"gopkg.in/mgo.v2/bson"

	"burrow/ikey"
	"burrow/schema"
)

// lookupPath walks a dotted path through nested documents.
func lookupPath(doc bson.M, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, p := range parts {
		switch m := cur.(type) {
		case bson.M:
			v, ok := m[p]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]any:
			v, ok := m[p]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// extractKey evaluates a key path against a document. The second
// return is false when the path is missing or its value is not a valid
// key; for a composite path, every component must yield a valid key.
func extractKey(doc bson.M, kp schema.KeyPath) (ikey.Key, bool) {
	if kp.IsZero() {
		return ikey.Key{}, false
	}
	if kp.IsComposite() {
		elems := make([]ikey.Key, 0, len(kp.Paths()))
		for _, p := range kp.Paths() {
			v, ok := lookupPath(doc, p)
			if !ok {
				return ikey.Key{}, false
			}
			k, err := ikey.FromValue(v)
			if err != nil {
				return ikey.Key{}, false
			}
			elems = append(elems, k)
		}
		return ikey.List(elems...), true
	}
	v, ok := lookupPath(doc, kp.Paths()[0])
	if !ok {
		return ikey.Key{}, false
	}
	k, err := ikey.FromValue(v)
	if err != nil {
		return ikey.Key{}, false
	}
	return k, true
}

// injectKey writes a generated key into the document at a single key
// path, creating intermediate documents as needed.
func injectKey(doc bson.M, path string, value any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(bson.M)
		if !ok {
			next = bson.M{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// indexKeys computes the index entry key(s) a document contributes to
// an index. A missing or invalid value means the document simply has
// no entry. A multiEntry index fans an array value out to one entry
// per distinct valid element.
func indexKeys(doc bson.M, def schema.Index) []ikey.Key {
	if def.MultiEntry {
		v, ok := lookupPath(doc, def.KeyPath.Paths()[0])
		if !ok {
			return nil
		}
		arr, isArr := v.([]any)
		if !isArr {
			k, err := ikey.FromValue(v)
			if err != nil {
				return nil
			}
			return []ikey.Key{k}
		}
		var out []ikey.Key
		for _, e := range arr {
			k, err := ikey.FromValue(e)
			if err != nil {
				continue
			}
			dup := false
			for _, seen := range out {
				if seen.Equal(k) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, k)
			}
		}
		return out
	}

	k, ok := extractKey(doc, def.KeyPath)
	if !ok {
		return nil
	}
	return []ikey.Key{k}
}
