package burrow

import (
	"os"

	"github.com/pkg/errors"
	"github.com/samber/mo"
	"gopkg.in/yaml.v3"

	"burrow/schema"
)

// fileConfig is the yaml shape of a database declaration:
//
//	name: contacts-db
//	version: 2
//	stores:
//	  - name: contacts
//	    keyPath: id
//	    autoIncrement: true
//	    indexes:
//	      - name: by_email
//	        keyPath: email
//	        unique: true
type fileConfig struct {
	Name    string         `yaml:"name"`
	Version *uint64        `yaml:"version"`
	Stores  []schema.Store `yaml:"stores"`
}

// ParseConfig reads a declarative database configuration. Migration
// steps are code and cannot come from a file; attach them to the
// returned Config's Plan.
func ParseConfig(data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, errors.Wrap(err, "parsing config")
	}
	if fc.Name == "" {
		return Config{}, errors.New("config: missing database name")
	}

	cfg := Config{
		Name:   fc.Name,
		Schema: schema.Schema{Stores: fc.Stores},
	}
	if fc.Version != nil {
		if *fc.Version == 0 {
			return Config{}, errors.New("config: version must be at least 1")
		}
		cfg.Version = mo.Some(*fc.Version)
	}
	if err := cfg.Schema.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig is ParseConfig over a file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading config")
	}
	return ParseConfig(data)
}
