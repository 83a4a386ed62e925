package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	sigsyaml "sigs.k8s.io/yaml"
)

const profileSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "base", "version", "target", "devices"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "base": {"type": "string", "enum": ["openwrt", "immortalwrt"]},
    "version": {"type": "string", "pattern": "^[0-9]+\\.[0-9]+"},
    "target": {"type": "string", "pattern": "^[a-z0-9_]+/[a-z0-9_]+$"},
    "tunnel": {"type": "string"},
    "devices": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "packages": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[^|]+\\|.+$"}
    },
    "patches": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["match", "replace", "files"],
        "properties": {
          "match": {"type": "string", "minLength": 1},
          "replace": {"type": "string"},
          "files": {"type": "string", "minLength": 1}
        }
      }
    },
    "checksums": {
      "type": "object",
      "properties": {
        "url": {"type": "string"},
        "signature_url": {"type": "string"},
        "keyring_path": {"type": "string"}
      }
    },
    "repack": {
      "type": "object",
      "properties": {
        "builder": {"type": "string", "enum": ["", "ophub", "ulo"]},
        "builder_dir": {"type": "string"},
        "kernel": {"type": "string"},
        "rootfs_size": {"type": "integer", "minimum": 0}
      }
    },
    "notify": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "chat_id": {"type": "integer"},
        "topic_id": {"type": "integer"},
        "page_path": {"type": "string"},
        "download_base": {"type": "string"}
      }
    }
  },
  "additionalProperties": false
}`

var compiledProfileSchema = mustCompileProfileSchema()

func mustCompileProfileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("profile.schema.json", bytes.NewReader([]byte(profileSchema))); err != nil {
		panic(fmt.Sprintf("adding profile schema resource: %v", err))
	}
	return c.MustCompile("profile.schema.json")
}

// ValidateProfileYAML checks raw profile YAML against the embedded schema.
func ValidateProfileYAML(data []byte) error {
	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("converting profile to JSON: %w", err)
	}
	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("decoding profile JSON: %w", err)
	}
	if err := compiledProfileSchema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
