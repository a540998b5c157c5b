// Package main generates the JSON Schema that config.ValidateSchema embeds,
// by reflecting over the mapstructure tags of config.Config. Constraints the
// struct cannot express (enums, bounds, length floors) come from the
// override table below.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/Sumatoshi-tech/sensorhub/internal/config"
)

// durationPattern accepts the spellings time.ParseDuration accepts.
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

// schema is the subset of JSON Schema draft-07 the configuration uses.
type schema struct {
	Schema               string             `json:"$schema,omitempty"`
	Title                string             `json:"title,omitempty"`
	Type                 string             `json:"type,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
	Properties           map[string]*schema `json:"properties,omitempty"`
	Items                *schema            `json:"items,omitempty"`
	UniqueItems          bool               `json:"uniqueItems,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	Pattern              string             `json:"pattern,omitempty"`
	MinLength            *int               `json:"minLength,omitempty"`
	Minimum              *float64           `json:"minimum,omitempty"`
	Maximum              *float64           `json:"maximum,omitempty"`
}

// override tightens one leaf schema beyond what its Go type implies.
type override struct {
	enum      []string
	itemsEnum []string
	minLength int
	maximum   float64
	hasMax    bool
}

// overrides is keyed by the dotted mapstructure path of a leaf field. Values
// must stay in step with the validation tables in internal/config.
var overrides = map[string]override{
	"input.path":                  {minLength: 1},
	"pipeline.mode":               {enum: []string{"sequential", "pool", "stream"}},
	"analyzers.battery_low_ratio": {maximum: 1, hasMax: true},
	"alerts.battery_low_percent":  {maximum: 100, hasMax: true},
	"sink.format":                 {enum: []string{"text", "json", "yaml"}},
	"sink.outputs":                {itemsEnum: []string{"console", "file"}},
	"sink.file_path":              {minLength: 1},
	"dashboard.path":              {minLength: 1},
	"observability.log_level":     {enum: []string{"debug", "info", "warn", "error"}},
}

var outputPath string

func main() {
	flag.StringVar(&outputPath, "o", "internal/config/schema.json", "Output path for the schema")
	flag.Parse()

	root := generateSchema(reflect.TypeOf(config.Config{}))

	if err := writeSchema(root); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", outputPath)
}

func generateSchema(t reflect.Type) *schema {
	root := objectSchema(t, "")
	root.Schema = "http://json-schema.org/draft-07/schema#"
	root.Title = "sensorhub configuration"

	return root
}

// objectSchema renders a struct as a closed object: properties follow the
// mapstructure tags and unknown keys are rejected.
func objectSchema(t reflect.Type, path string) *schema {
	props := make(map[string]*schema, t.NumField())

	for i := range t.NumField() {
		field := t.Field(i)

		name := field.Tag.Get("mapstructure")
		if name == "" || name == "-" {
			continue
		}

		props[name] = fieldSchema(field.Type, joinPath(path, name))
	}

	sealed := false

	return &schema{
		Type:                 "object",
		AdditionalProperties: &sealed,
		Properties:           props,
	}
}

func fieldSchema(t reflect.Type, path string) *schema {
	// Durations travel as strings in YAML config files.
	if t == reflect.TypeOf(time.Duration(0)) {
		return &schema{Type: "string", Pattern: durationPattern}
	}

	switch t.Kind() {
	case reflect.Struct:
		return objectSchema(t, path)

	case reflect.String:
		return applyOverride(&schema{Type: "string"}, path)

	case reflect.Bool:
		return &schema{Type: "boolean"}

	case reflect.Int, reflect.Int64:
		return applyOverride(nonNegative("integer"), path)

	case reflect.Float64:
		return applyOverride(nonNegative("number"), path)

	case reflect.Slice:
		items := fieldSchema(t.Elem(), path)

		if o, ok := overrides[path]; ok && len(o.itemsEnum) > 0 {
			items.Enum = o.itemsEnum
		}

		return &schema{Type: "array", Items: items, UniqueItems: true}

	default:
		return &schema{Type: "object"}
	}
}

// nonNegative returns a numeric schema floored at zero, matching the
// threshold and concurrency validation in internal/config.
func nonNegative(typ string) *schema {
	zero := 0.0

	return &schema{Type: typ, Minimum: &zero}
}

func applyOverride(s *schema, path string) *schema {
	o, ok := overrides[path]
	if !ok {
		return s
	}

	if len(o.enum) > 0 {
		s.Enum = o.enum
	}

	if o.minLength > 0 {
		s.MinLength = &o.minLength
	}

	if o.hasMax {
		s.Maximum = &o.maximum
	}

	return s
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}

	return path + "." + name
}

func writeSchema(root *schema) error {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	return os.WriteFile(outputPath, append(data, '\n'), 0o644)
}
