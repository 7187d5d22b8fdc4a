package schema

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// A KeyPath names the record field(s) a store or index derives its key
// from: either a single (possibly dotted) path, or an ordered composite
// of paths. Zero value means "no key path" (out-of-line keys).
type KeyPath struct {
	paths     []string
	composite bool
}

func Path(p string) KeyPath {
	return KeyPath{paths: []string{p}}
}

func Composite(paths ...string) KeyPath {
	return KeyPath{paths: paths, composite: true}
}

func (kp KeyPath) IsZero() bool      { return len(kp.paths) == 0 && !kp.composite }
func (kp KeyPath) IsComposite() bool { return kp.composite }

// Paths returns the component paths; exactly one unless composite.
func (kp KeyPath) Paths() []string { return kp.paths }

// Equal compares structurally: composite vs composite element-wise,
// single vs single by value, composite vs single never equal.
func (kp KeyPath) Equal(o KeyPath) bool {
	if kp.composite != o.composite {
		return false
	}
	if len(kp.paths) != len(o.paths) {
		return false
	}
	for i := range kp.paths {
		if kp.paths[i] != o.paths[i] {
			return false
		}
	}
	return true
}

func (kp KeyPath) String() string {
	if kp.composite {
		return "[" + strings.Join(kp.paths, ",") + "]"
	}
	if len(kp.paths) == 0 {
		return ""
	}
	return kp.paths[0]
}

// yaml: a scalar is a single path, a sequence is a composite
func (kp *KeyPath) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var p string
		if err := node.Decode(&p); err != nil {
			return err
		}
		*kp = Path(p)
		return nil
	case yaml.SequenceNode:
		var ps []string
		if err := node.Decode(&ps); err != nil {
			return err
		}
		*kp = Composite(ps...)
		return nil
	default:
		return errors.New("keyPath must be a string or a list of strings")
	}
}

func (kp KeyPath) MarshalYAML() (any, error) {
	if kp.composite {
		return kp.paths, nil
	}
	if len(kp.paths) == 0 {
		return nil, nil
	}
	return kp.paths[0], nil
}
