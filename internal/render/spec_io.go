package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	archsketch "github.com/archsketch/archsketch"
)

// LoadSpec reads a diagram spec from a JSON or YAML file, chosen by
// extension (.json vs .yaml/.yml).
func LoadSpec(path string) (*archsketch.DiagramSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}

	var spec archsketch.DiagramSpec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported spec file extension %q (use .json, .yaml or .yml)", filepath.Ext(path))
	}

	return &spec, nil
}
