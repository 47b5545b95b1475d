// Command schemagen emits JSON schemas for the gateway wire types so
// presentation clients can validate their encoders against the server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/valewood/simcore/internal/boundary"
	"github.com/valewood/simcore/internal/gateway"
)

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "", "directory to write the JSON schemas")
	flag.Parse()

	if outDir == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	schemas := map[string]*jsonschema.Schema{
		"input_snapshot.schema.json":      reflectType(new(boundary.Snapshot), "Input Snapshot", "Coalesced client input posted to the simulation each tick."),
		"envelope.schema.json":            reflectType(new(gateway.Envelope), "Notification Envelope", "Typed wrapper around every notification frame the gateway sends."),
		"entity_spawned.schema.json":      reflectType(new(boundary.EntitySpawned), "Entity Spawned", "An entity entered the live world."),
		"entity_despawned.schema.json":    reflectType(new(boundary.EntityDespawned), "Entity Despawned", "An entity left the live world."),
		"entity_moved.schema.json":        reflectType(new(boundary.EntityMoved), "Entity Moved", "An entity's transform changed."),
		"entity_state_change.schema.json": reflectType(new(boundary.EntityStateChanged), "Entity State Changed", "An entity's behavior state changed."),
	}

	for name, schema := range schemas {
		if err := writeSchema(filepath.Join(outDir, name), schema); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", name, err)
			os.Exit(1)
		}
	}
}

func reflectType(v any, title, description string) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(v)
	schema.Title = title
	schema.Description = description
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
