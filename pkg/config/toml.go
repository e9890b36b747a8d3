package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ToTOML serializes the persisted part of the configuration to TOML.
func (c *Config) ToTOML() ([]byte, error) {
	if c == nil {
		return nil, nil
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.Indent = strings.Repeat(" ", YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// FromTOML parses a configuration from TOML bytes. Unknown keys are rejected
// so that typos surface instead of being silently ignored.
func FromTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			if len(key) > 0 && key[0] == "rules" {
				continue
			}
			keys = append(keys, key.String())
		}
		if len(keys) > 0 {
			return nil, fmt.Errorf("parse toml: unknown keys: %s", strings.Join(keys, ", "))
		}
	}

	if cfg.Rules == nil {
		cfg.Rules = make(map[string]RuleConfig)
	}

	return cfg, nil
}

// Decode parses data according to the extension of path: ".toml" is read as
// TOML, anything else as YAML.
func Decode(path string, data []byte) (*Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FromTOML(data)
	}
	return FromYAML(data)
}
