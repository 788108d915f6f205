package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const ingestionSchema = `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["id", "raw_text"],
    "properties": {
      "id": {"type": ["integer", "string"]},
      "gtin": {"type": ["string", "null"]},
      "raw_text": {"type": "string"},
      "source_type": {"type": ["string", "null"]},
      "created_at": {"type": ["string", "null"]}
    }
  }
}`

const extractionSchema = `{
  "type": "object",
  "required": ["entities"],
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["word", "entity_group"],
        "properties": {
          "word": {"type": "string"},
          "entity_group": {"type": "string"},
          "score": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "normalized_ingredients": {
      "type": ["array", "null"],
      "items": {"type": "string"}
    }
  }
}`

const impactSchema = `{
  "type": "object",
  "required": ["total_co2_kg", "total_water_l", "total_energy_mj"],
  "properties": {
    "product_name": {"type": "string"},
    "total_co2_kg": {"type": "number", "minimum": 0},
    "total_water_l": {"type": "number", "minimum": 0},
    "total_energy_mj": {"type": "number", "minimum": 0}
  }
}`

const scoringSchema = `{
  "type": "object",
  "required": ["score_letter", "score_numerical"],
  "properties": {
    "product_name": {"type": "string"},
    "score_letter": {"enum": ["A", "B", "C", "D", "E"]},
    "score_numerical": {"type": "number", "minimum": 0, "maximum": 100},
    "confidence_level": {"type": "number", "minimum": 0, "maximum": 1},
    "explanation": {"type": "string"},
    "model_used": {"type": "string"}
  }
}`

var (
	ingestionContract  = mustCompile("ingestion.json", ingestionSchema)
	extractionContract = mustCompile("extraction.json", extractionSchema)
	impactContract     = mustCompile("impact.json", impactSchema)
	scoringContract    = mustCompile("scoring.json", scoringSchema)
)

func mustCompile(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}

// conform checks a response body against a stage contract
func conform(schema *jsonschema.Schema, body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
