// Package schema holds the declarative description of a database:
// named stores, their primary-key parameters and their secondary
// indexes. A declaration is built once by the caller and consumed only
// during version upgrades.
package schema

import (
	"gopkg.in/yaml.v3"

	"github.com/pkg/errors"
)

type Index struct {
	Name       string  `yaml:"name"`
	KeyPath    KeyPath `yaml:"keyPath"`
	Unique     bool    `yaml:"unique"`
	MultiEntry bool    `yaml:"multiEntry"`
}

type Store struct {
	Name          string  `yaml:"name"`
	KeyPath       KeyPath `yaml:"keyPath"`
	AutoIncrement bool    `yaml:"autoIncrement"`
	Indexes       []Index `yaml:"indexes"`
}

// Index looks up a declared index by name.
func (s Store) Index(name string) (Index, bool) {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return Index{}, false
}

type Schema struct {
	Stores []Store `yaml:"stores"`
}

func (s Schema) IsZero() bool { return len(s.Stores) == 0 }

// Store looks up a declared store by name.
func (s Schema) Store(name string) (Store, bool) {
	for _, st := range s.Stores {
		if st.Name == name {
			return st, true
		}
	}
	return Store{}, false
}

func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s.Stores))
	for _, st := range s.Stores {
		if st.Name == "" {
			return errors.New("schema: store with empty name")
		}
		if seen[st.Name] {
			return errors.Errorf("schema: duplicate store %q", st.Name)
		}
		seen[st.Name] = true

		idxSeen := make(map[string]bool, len(st.Indexes))
		for _, idx := range st.Indexes {
			if idx.Name == "" {
				return errors.Errorf("schema: store %q has an index with empty name", st.Name)
			}
			if idxSeen[idx.Name] {
				return errors.Errorf("schema: store %q declares index %q twice", st.Name, idx.Name)
			}
			idxSeen[idx.Name] = true
			if idx.KeyPath.IsZero() {
				return errors.Errorf("schema: index %q of store %q has no keyPath", idx.Name, st.Name)
			}
			if idx.MultiEntry && idx.KeyPath.IsComposite() {
				return errors.Errorf("schema: index %q of store %q is multiEntry with a composite keyPath", idx.Name, st.Name)
			}
		}
	}
	return nil
}

// Parse reads a schema declaration from yaml.
func Parse(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, errors.Wrap(err, "parsing schema")
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}
