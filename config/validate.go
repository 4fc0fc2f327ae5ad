package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "sward://config.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader([]byte(schemaJSON))); err != nil {
			schemaErr = fmt.Errorf("loading config schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Validate checks a YAML config document against the config JSON schema.
// Unknown keys and out-of-range parameters are reported before the document
// is merged over the defaults.
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if doc == nil {
		return nil
	}

	// Round-trip through JSON so the validator sees JSON-native types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting config to JSON: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("converting config to JSON: %w", err)
	}
	return s.Validate(v)
}
