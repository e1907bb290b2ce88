package config

import (
	"encoding/json"

	"gopkg.in/yaml.v2"
)

func MarshalJSON(config Config) ([]byte, error) {
	return json.MarshalIndent(config, "", "  ")
}

func UnmarshalJSON(bz []byte, config *Config) error {
	return json.Unmarshal(bz, config)
}

// MarshalYAML renders the JSON encoding of v as YAML, so that chain configurations keep their
// "@type" field and their JSON field names
func MarshalYAML(v any) ([]byte, error) {
	bz, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := yaml.Unmarshal(bz, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}
