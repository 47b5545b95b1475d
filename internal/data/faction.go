package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Faction is one daily-planning subject.
type Faction struct {
	ID   int32  `yaml:"id"`
	Name string `yaml:"name"`
}

// InitialRelation seeds the standing between two factions at world start.
type InitialRelation struct {
	A        int32 `yaml:"a"`
	B        int32 `yaml:"b"`
	Standing int   `yaml:"standing"`
}

type factionFile struct {
	Factions  []Faction         `yaml:"factions"`
	Relations []InitialRelation `yaml:"relations"`
}

// LoadFactionTable returns factions sorted by ID so batch partitioning is
// stable across runs.
func LoadFactionTable(path string) ([]Faction, []InitialRelation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read faction table %s: %w", path, err)
	}
	var f factionFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, nil, fmt.Errorf("parse faction table %s: %w", path, err)
	}
	sort.Slice(f.Factions, func(i, j int) bool { return f.Factions[i].ID < f.Factions[j].ID })
	return f.Factions, f.Relations, nil
}
