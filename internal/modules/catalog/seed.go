package catalog

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/hermes-backend/internal/domain/catalog"
)

// SeedNode is one entry of a seed document. Nodes either nest through
// Children or give their full Path directly.
type SeedNode struct {
	Name        string     `yaml:"name"`
	Path        []string   `yaml:"path"`
	Description string     `yaml:"description"`
	Children    []SeedNode `yaml:"children"`
}

type SeedFile struct {
	Disciplines []SeedNode `yaml:"disciplines"`
}

// ParseSeed reads a YAML seed document and flattens it into one discipline
// per node. Duplicate paths keep the last description seen.
func ParseSeed(r io.Reader) ([]*catalog.Discipline, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	var out []*catalog.Discipline
	index := map[string]int{}
	var walk func(parent []string, nodes []SeedNode) error
	walk = func(parent []string, nodes []SeedNode) error {
		for _, n := range nodes {
			path := n.Path
			if len(path) == 0 {
				name := strings.TrimSpace(n.Name)
				if name == "" {
					return fmt.Errorf("seed node under %q has neither name nor path", strings.Join(parent, " > "))
				}
				path = append(append([]string{}, parent...), name)
			}
			if len(path) > catalog.MaxLevels {
				return fmt.Errorf("seed path %q is deeper than %d levels", strings.Join(path, " > "), catalog.MaxLevels)
			}
			d := catalog.FromPath(path, n.Description)
			if err := d.Validate(); err != nil {
				return fmt.Errorf("seed path %q: %w", strings.Join(path, " > "), err)
			}
			if i, ok := index[d.Slug]; ok {
				out[i] = &d
			} else {
				index[d.Slug] = len(out)
				out = append(out, &d)
			}
			if err := walk(d.Path(), n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(nil, f.Disciplines); err != nil {
		return nil, err
	}
	return out, nil
}
