// Package prompts holds the embedded prompt catalog used by the generation
// services. Templates are Go text/template strings rendered against the
// input each service passes in.
package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/hermes-backend/internal/ai"
)

type Name string

const (
	Syllabus  Name = "syllabus"
	Pillars   Name = "pillars"
	Grammar   Name = "grammar"
	Resources Name = "resources"
	Notes     Name = "notes"
)

//go:embed catalog.yaml
var catalogYAML []byte

type spec struct {
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`
	JSON        bool    `yaml:"json"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type catalogFile struct {
	Version string          `yaml:"version"`
	Prompts map[string]spec `yaml:"prompts"`
}

type compiled struct {
	spec
	system *template.Template
	user   *template.Template
}

// Catalog is a parsed prompt catalog.
type Catalog struct {
	version string
	prompts map[Name]compiled
}

// Parse compiles a catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	if strings.TrimSpace(f.Version) == "" {
		return nil, fmt.Errorf("prompt catalog missing version")
	}
	c := &Catalog{version: strings.TrimSpace(f.Version), prompts: map[Name]compiled{}}
	for name, s := range f.Prompts {
		if strings.TrimSpace(s.System) == "" || strings.TrimSpace(s.User) == "" {
			return nil, fmt.Errorf("prompt %s missing system or user template", name)
		}
		sysT, err := template.New(name + ".system").Option("missingkey=zero").Parse(s.System)
		if err != nil {
			return nil, fmt.Errorf("%s system template parse: %w", name, err)
		}
		userT, err := template.New(name + ".user").Option("missingkey=zero").Parse(s.User)
		if err != nil {
			return nil, fmt.Errorf("%s user template parse: %w", name, err)
		}
		c.prompts[Name(name)] = compiled{spec: s, system: sysT, user: userT}
	}
	return c, nil
}

func (c *Catalog) Version() string { return c.version }

// Build renders the named prompt into a provider request.
func (c *Catalog) Build(name Name, in any) (ai.Request, error) {
	p, ok := c.prompts[name]
	if !ok {
		return ai.Request{}, fmt.Errorf("unknown prompt: %s", name)
	}
	system, err := render(p.system, in)
	if err != nil {
		return ai.Request{}, fmt.Errorf("%s: %w", name, err)
	}
	user, err := render(p.user, in)
	if err != nil {
		return ai.Request{}, fmt.Errorf("%s: %w", name, err)
	}
	return ai.Request{
		System:      applyStyle(system, p.JSON),
		User:        user,
		JSON:        p.JSON,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	}, nil
}

func render(t *template.Template, in any) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, in); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

const styleMarker = "HERMES_PROMPT_STYLE_V1"

// applyStyle prepends the shared output guidance block to a system prompt.
func applyStyle(system string, jsonMode bool) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, styleMarker) {
		return base
	}
	var b strings.Builder
	b.WriteString(styleMarker)
	b.WriteString("\nYou are a careful assistant for Hermes, a self-directed learning service.")
	b.WriteString("\nFollow the system and user instructions precisely.")
	b.WriteString("\nDo not invent facts, URLs or citations.")
	if jsonMode {
		b.WriteString("\nReturn only the requested JSON value, with no commentary.")
	} else {
		b.WriteString("\nBe concise and structured.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded file is
// malformed, which the package tests guard against.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(catalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}
