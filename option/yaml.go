// File: option/yaml.go
// Package option
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// YAML configuration loading. A document maps option names to scalar values
// or lists; lists feed sequence-valued options.

package option

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML parses a YAML document of option names to values into a map.
// Unknown names fail with ErrUnsupportedOption.
func LoadYAML(data []byte) (Map, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return EmptyMap, fmt.Errorf("option: parsing yaml: %w", err)
	}
	b := NewBuilder()
	for name, raw := range doc {
		if err := b.Parse(name, textualValue(raw)); err != nil {
			return EmptyMap, err
		}
	}
	return b.Map(), nil
}

// LoadYAMLFile reads and parses an option file.
func LoadYAMLFile(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EmptyMap, fmt.Errorf("option: reading %s: %w", path, err)
	}
	return LoadYAML(data)
}

// textualValue renders a decoded YAML value in option textual form: scalars
// verbatim, lists comma-joined.
func textualValue(raw any) string {
	if list, ok := raw.([]any); ok {
		out := ""
		for i, item := range list {
			if i > 0 {
				out += ","
			}
			out += fmt.Sprint(item)
		}
		return out
	}
	return fmt.Sprint(raw)
}
