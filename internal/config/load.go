package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadBytes decodes raw configuration bytes into a ConfigModule. format is
// one of "yaml", "yml" or "json", as returned by DetectFormat. SDL is not
// loaded: DetectFormat reports "graphql" for .graphql/.graphqls/.gql files,
// and LoadBytes returns an unsupported-format error for it.
func LoadBytes(format string, data []byte) (*ConfigModule, error) {
	switch format {
	case "yaml", "yml":
		var doc wireDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("config: parsing YAML: %w", err)
		}
		cfg, err := doc.convert()
		if err != nil {
			return nil, err
		}
		return NewModule(cfg), nil
	case "json":
		var doc wireDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("config: parsing JSON: %w", err)
		}
		cfg, err := doc.convert()
		if err != nil {
			return nil, err
		}
		return NewModule(cfg), nil
	default:
		return nil, fmt.Errorf("config: unsupported format %q", format)
	}
}

// DetectFormat maps a file extension to a LoadBytes format name.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml":
		return "yaml"
	case ".yml":
		return "yml"
	case ".json":
		return "json"
	case ".graphql", ".graphqls", ".gql":
		return "graphql"
	default:
		return ""
	}
}
