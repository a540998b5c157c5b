package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// ErrSchemaViolation indicates a config file that parses as YAML but does not
// match the configuration schema.
var ErrSchemaViolation = errors.New("config schema violation")

// ValidateSchema checks a YAML config file against the embedded JSON Schema.
// Every violation is reported, not just the first, so a hand-edited file can
// be fixed in one pass.
func ValidateSchema(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var doc map[string]any

	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if doc == nil {
		doc = map[string]any{}
	}

	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonDoc),
	)
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]error, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, fmt.Errorf("%w: %s: %s", ErrSchemaViolation, verr.Field(), verr.Description()))
	}

	return errors.Join(violations...)
}
