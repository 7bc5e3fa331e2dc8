package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const riskParamsSchema = `{
	"type": "object",
	"properties": {
		"ltv": {"type": "integer", "minimum": 0},
		"liquidation_threshold": {"type": "integer", "minimum": 0},
		"liquidation_bonus": {"type": "integer", "minimum": 0},
		"reserve_factor": {"type": "integer", "minimum": 0, "maximum": 10000},
		"borrow_enabled": {"type": "boolean"},
		"supply_cap": {"type": "integer", "minimum": 0},
		"borrow_cap": {"type": "integer", "minimum": 0},
		"interest_rate_strategy": {"type": "string"}
	},
	"required": ["ltv", "liquidation_threshold"],
	"additionalProperties": false
}`

var proposeSchema = mustCompileSchema("propose", fmt.Sprintf(`{
	"type": "object",
	"properties": {
		"subject_id": {"type": "string", "minLength": 1},
		"params": %s,
		"context": {
			"type": "object",
			"properties": {
				"network": {"type": "string"},
				"labels": {"type": "object", "additionalProperties": {"type": "string"}}
			},
			"additionalProperties": false
		}
	},
	"required": ["subject_id", "params"],
	"additionalProperties": false
}`, riskParamsSchema))

var updateSchema = mustCompileSchema("update-params", fmt.Sprintf(`{
	"type": "object",
	"properties": {
		"updates": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"properties": {
					"subject_id": {"type": "string", "minLength": 1},
					"params": %s
				},
				"required": ["subject_id", "params"],
				"additionalProperties": false
			}
		}
	},
	"required": ["updates"],
	"additionalProperties": false
}`, riskParamsSchema))

func mustCompileSchema(name, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://steward.schemas.local/%s.schema.json", name)
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("load %s schema: %v", name, err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return compiled
}

// decodeValidated validates body against the schema and decodes it into
// dst. Validation runs on the generic document so schema errors surface
// before any type coercion.
func decodeValidated(schema *jsonschema.Schema, body []byte, dst any) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}
