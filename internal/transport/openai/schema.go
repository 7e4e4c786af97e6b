package openai

import "encoding/json"

// Closed JSON schemas sent as response_format so the provider constrains
// its own output. The validator enforces the same shape independently:
// the schema is a hint, the validator is the contract.

var iracSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"issue": {"type": "string"},
		"rule": {"type": "string"},
		"application": {"type": "string"},
		"conclusion": {"type": "string"},
		"blocks": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"ro_number": {"type": "string"},
					"role": {"type": "string", "enum": ["Rule", "Application", "Conclusion", "Other"]},
					"quote": {"type": "string"},
					"summary": {"type": "string"},
					"citations": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["ro_number", "role", "quote", "summary", "citations"],
				"additionalProperties": false
			}
		},
		"sources": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["issue", "rule", "application", "conclusion", "blocks", "sources"],
	"additionalProperties": false
}`)

var gistSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"essence": {"type": "string", "description": "Max ~120 woorden, in helder NL."},
		"key_points": {"type": "array", "items": {"type": "string"}, "description": "3-5 bullets met feitelijke highlights."}
	},
	"required": ["essence", "key_points"],
	"additionalProperties": false
}`)
