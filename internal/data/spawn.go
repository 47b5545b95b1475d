package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnEntry defines where and how many entities to seed at world start.
type SpawnEntry struct {
	DefID    string  `yaml:"def_id"`
	Count    int     `yaml:"count"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	ScatterX float64 `yaml:"scatter_x"` // uniform spread around (x, y)
	ScatterY float64 `yaml:"scatter_y"`
	Faction  int32   `yaml:"faction"` // 0 = none
}

func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn list %s: %w", path, err)
	}
	var entries []SpawnEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse spawn list %s: %w", path, err)
	}
	return entries, nil
}
