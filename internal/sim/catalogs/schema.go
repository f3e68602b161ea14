package catalogs

import "github.com/santhosh-tekuri/jsonschema/v5"

// The envelope is validated as a whole; each recipe is validated on its own
// so one bad entry does not reject the file.
const fileSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "recipes"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "recipes": {"type": "array"}
  }
}`

const recipeSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "key": {
      "type": "object",
      "required": ["item"],
      "properties": {
        "item": {"type": "string", "minLength": 1},
        "variant": {"type": "integer"}
      },
      "additionalProperties": false
    },
    "ingredient": {
      "oneOf": [
        {"type": "null"},
        {"$ref": "#/definitions/key"},
        {
          "type": "object",
          "required": ["any_of"],
          "properties": {"any_of": {"type": "array", "items": {"$ref": "#/definitions/key"}}},
          "additionalProperties": false
        },
        {
          "type": "object",
          "required": ["tag"],
          "properties": {"tag": {"type": "string"}},
          "additionalProperties": false
        }
      ]
    }
  },
  "type": "object",
  "required": ["id", "ingredients", "output"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "shaped": {"type": "boolean"},
    "width": {"type": "integer", "minimum": 0},
    "height": {"type": "integer", "minimum": 0},
    "ingredients": {"type": "array", "items": {"$ref": "#/definitions/ingredient"}},
    "output": {
      "type": "object",
      "required": ["item", "count"],
      "properties": {
        "item": {"type": "string"},
        "variant": {"type": "integer"},
        "count": {"type": "integer"}
      }
    }
  }
}`

var (
	fileSchema   = jsonschema.MustCompileString("recipes-file.schema.json", fileSchemaJSON)
	recipeSchema = jsonschema.MustCompileString("recipe.schema.json", recipeSchemaJSON)
)
