package catalog

import (
	"fmt"
	"os"

	"borlette/domain"

	"gopkg.in/yaml.v3"
)

// File is the on-disk override format:
//
//	bet_types:
//	  borlette:
//	    multipliers: [60, 20, 10]
//	draws:
//	  - id: miami
//	    name: Miami
//	    slots: [morning, evening]
//
// Bet types not named keep their defaults. A non-empty draws list replaces
// the default draws.
type File struct {
	BetTypes map[string]FileEntry `yaml:"bet_types"`
	Draws    []domain.Draw        `yaml:"draws"`
}

type FileEntry struct {
	Multipliers []int64 `yaml:"multipliers"`
}

// LoadFile returns the default catalog with the overrides in path applied.
// An empty path yields the default catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigError{Key: "BET_CATALOG_PATH", Message: err.Error()}
	}

	return Parse(raw)
}

// Parse applies the YAML overrides in raw to the default catalog.
func Parse(raw []byte) (*Catalog, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, &domain.ConfigError{Key: "BET_CATALOG_PATH", Message: fmt.Sprintf("parse catalog: %v", err)}
	}

	entries := make([]Entry, len(defaultEntries))
	index := make(map[domain.BetType]int, len(defaultEntries))
	for i, e := range defaultEntries {
		entries[i] = e
		index[e.Type] = i
	}

	for name, override := range file.BetTypes {
		i, ok := index[domain.BetType(name)]
		if !ok {
			return nil, &domain.ConfigError{Key: "BET_CATALOG_PATH", Message: fmt.Sprintf("unknown bet type %q", name)}
		}
		if len(override.Multipliers) != len(entries[i].Multipliers) {
			return nil, &domain.ConfigError{
				Key:     "BET_CATALOG_PATH",
				Message: fmt.Sprintf("bet type %s needs %d multipliers, got %d", name, len(entries[i].Multipliers), len(override.Multipliers)),
			}
		}
		entries[i].Multipliers = override.Multipliers
	}

	draws := defaultDraws
	if len(file.Draws) > 0 {
		draws = file.Draws
	}

	c, err := New(entries, draws)
	if err != nil {
		return nil, &domain.ConfigError{Key: "BET_CATALOG_PATH", Message: err.Error()}
	}
	return c, nil
}
