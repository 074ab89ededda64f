// Package registry loads the code-defined feature registry that the sync
// wizard diffs against stored feature records.
package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"hrflow/internal/feature"
)

// Definition is one feature as declared in the registry file.
type Definition struct {
	Code        string `yaml:"code" json:"code"`
	Name        string `yaml:"name" json:"name"`
	Module      string `yaml:"module" json:"module"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Enabled     bool   `yaml:"enabled" json:"enabled"`
}

// Feature maps the definition onto a stored record.
func (d Definition) Feature() feature.Feature {
	return feature.Feature{
		Code:        d.Code,
		Name:        d.Name,
		Module:      d.Module,
		Description: d.Description,
		Enabled:     d.Enabled,
	}
}

type Registry struct {
	Features []Definition `yaml:"features"`
}

// Load reads and validates a registry YAML file.
func Load(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	reg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes registry YAML and enforces unique, well-formed codes.
func Parse(b []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(b, &reg); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(reg.Features))
	for i := range reg.Features {
		def := &reg.Features[i]
		def.Code = strings.TrimSpace(def.Code)
		def.Name = strings.TrimSpace(def.Name)
		def.Module = strings.TrimSpace(def.Module)
		if def.Code == "" {
			return nil, fmt.Errorf("feature %d has an empty code", i)
		}
		if def.Name == "" {
			return nil, fmt.Errorf("feature %q has an empty name", def.Code)
		}
		if def.Module == "" {
			return nil, fmt.Errorf("feature %q has an empty module", def.Code)
		}
		if _, dup := seen[def.Code]; dup {
			return nil, fmt.Errorf("duplicate feature code %q", def.Code)
		}
		seen[def.Code] = struct{}{}
	}
	return &reg, nil
}
