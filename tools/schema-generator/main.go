// Command schema-generator writes schema/dqm.schema.json, the schema embedded
// by the schema package. It composes the base configuration schema with the
// logging extension.
package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/dqm/config"
	"github.com/grovetools/dqm/logging"
	"github.com/invopop/jsonschema"
)

func main() {
	composed, err := compose()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	outputDir := "schema"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	outputPath := filepath.Join(outputDir, "dqm.schema.json")
	if err := os.WriteFile(outputPath, composed, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated schema at %s", outputPath)
}

// compose adds the logging extension to the base schema as a property and
// hoists its definitions.
func compose() ([]byte, error) {
	baseBytes, err := config.GenerateSchema()
	if err != nil {
		return nil, err
	}
	var base map[string]interface{}
	if err := json.Unmarshal(baseBytes, &base); err != nil {
		return nil, err
	}

	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		FieldNameTag:              "yaml",
	}
	loggingBytes, err := json.Marshal(r.Reflect(&logging.Config{}))
	if err != nil {
		return nil, err
	}
	var loggingSchema map[string]interface{}
	if err := json.Unmarshal(loggingBytes, &loggingSchema); err != nil {
		return nil, err
	}

	defs, _ := base["$defs"].(map[string]interface{})
	if defs == nil {
		defs = make(map[string]interface{})
	}
	loggingDefs, _ := loggingSchema["$defs"].(map[string]interface{})
	for name, def := range loggingDefs {
		if obj, ok := def.(map[string]interface{}); ok {
			// Logging keys are all optional.
			delete(obj, "required")
		}
		if name == "Config" {
			name = "LoggingConfig"
		}
		defs[name] = def
	}
	base["$defs"] = defs

	props, _ := base["properties"].(map[string]interface{})
	if props == nil {
		props = make(map[string]interface{})
	}
	props["logging"] = map[string]interface{}{
		"$ref":        "#/$defs/LoggingConfig",
		"description": "Logging configuration",
	}
	base["properties"] = props

	return json.MarshalIndent(base, "", "  ")
}
