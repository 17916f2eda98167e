package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for dqm.yml. Extensions are not
// part of the reflected struct, so the top level stays open to them.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	type BaseConfig struct {
		Version string       `yaml:"version,omitempty" jsonschema:"description=Configuration version (e.g. 1.0)"`
		Server  ServerConfig `yaml:"server,omitempty" jsonschema:"description=Audit backend connection settings"`
		UI      UIConfig     `yaml:"ui,omitempty" jsonschema:"description=Initial UI state"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "dqm Configuration"
	schema.Description = "Schema for dqm.yml properties."
	schema.AdditionalProperties = jsonschema.TrueSchema

	return json.MarshalIndent(schema, "", "  ")
}
