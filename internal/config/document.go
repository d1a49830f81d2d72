package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ReadDocument reads a YAML, JSON or TOML file (chosen by extension) into
// generic maps with ${VAR} references expanded.
func ReadDocument(path string) (any, error) {
	data, format, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(data, format)
}

func readSource(path string) ([]byte, string, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, format, nil
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".json":
		return "json", nil
	case ".toml":
		return "toml", nil
	default:
		return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

// DecodeDocument parses into generic maps and expands ${VAR} references.
// JSON is a subset of YAML, so yaml.v3 reads both.
func DecodeDocument(data []byte, format string) (any, error) {
	var raw any
	switch format {
	case "yaml", "json":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", format, err)
		}
	case "toml":
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		raw = m
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return expandTree(raw), nil
}

// ListOf unwraps {key: [...]} documents.
func ListOf(raw any, key string) any {
	if m, ok := raw.(map[string]any); ok {
		return m[key]
	}
	return raw
}

// Decode maps a generic document onto out using yaml tag names.
func Decode(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}
	return nil
}
