package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EntityDef holds static data for an entity definition loaded from YAML.
type EntityDef struct {
	DefID        string  `yaml:"def_id"`
	Name         string  `yaml:"name"`
	Kind         string  `yaml:"kind"` // player, npc, animal, ...
	Behavior     string  `yaml:"behavior"` // lua decide function name
	AlwaysActive bool    `yaml:"always_active"`
	MaxHealth    float64 `yaml:"max_health"`
	Speed        float64 `yaml:"speed"`
	HungerRate   float64 `yaml:"hunger_rate"` // points per in-game hour
	ThirstRate   float64 `yaml:"thirst_rate"`
}

type DefTable struct {
	byID map[string]*EntityDef
}

// NewDefTable builds a table from already-parsed definitions.
func NewDefTable(defs []*EntityDef) *DefTable {
	t := &DefTable{byID: make(map[string]*EntityDef, len(defs))}
	for _, d := range defs {
		t.byID[d.DefID] = d
	}
	return t
}

func LoadDefTable(path string) (*DefTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity defs %s: %w", path, err)
	}
	var defs []*EntityDef
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("parse entity defs %s: %w", path, err)
	}
	for _, d := range defs {
		if d.DefID == "" {
			return nil, fmt.Errorf("entity def with empty def_id in %s", path)
		}
	}
	return NewDefTable(defs), nil
}

func (t *DefTable) Get(defID string) (*EntityDef, bool) {
	d, ok := t.byID[defID]
	return d, ok
}

func (t *DefTable) Count() int { return len(t.byID) }
