package collector

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ReadYAMLFile reads a YAML mapping from path. A missing file yields an
// empty map, matching the "optional metadata file" contract; every other
// failure propagates.
func ReadYAMLFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var out map[string]any
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
