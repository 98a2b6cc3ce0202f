// Command schema emits JSON schemas for the websocket wire messages so
// client implementations can validate their encoders against the server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/duxbuse/waryes-sub005/internal/proto"
)

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "", "directory to write the JSON schemas")
	flag.Parse()

	if outDir == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	for name, schema := range buildSchemas() {
		if err := writeSchema(filepath.Join(outDir, name+".schema.json"), schema); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s schema: %v\n", name, err)
			os.Exit(1)
		}
	}
}

func buildSchemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}

	client := reflector.Reflect(new(proto.ClientMessage))
	client.Title = "Client Message"
	client.Description = "Inbound websocket frames: orders, spawns, heartbeats."

	join := reflector.Reflect(new(proto.JoinResponseV1))
	join.Title = "Join Response"
	join.Description = "First frame after connecting; carries the full keyframe."

	delta := reflector.Reflect(new(proto.DeltaV1))
	delta.Title = "Snapshot Delta"
	delta.Description = "Per-tick state changes plus the authoritative digest."

	keyframe := reflector.Reflect(new(proto.KeyframeV1))
	keyframe.Title = "Keyframe"
	keyframe.Description = "Full replicable state for resync and late join."

	return map[string]*jsonschema.Schema{
		"client":   client,
		"join":     join,
		"delta":    delta,
		"keyframe": keyframe,
	}
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
