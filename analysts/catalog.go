// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package analysts

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Role identifies an analyst profile in the catalog.
type Role string

const (
	RoleFinancial   Role = "financial"
	RoleResearch    Role = "research"
	RoleCompetitive Role = "competitive"
	RoleTechnical   Role = "technical"
	RoleReport      Role = "report"
)

// Roles lists every analyst role of a Team.
var Roles = []Role{RoleFinancial, RoleResearch, RoleCompetitive, RoleTechnical, RoleReport}

// A Profile is the persona of an analyst and its prompt templates.
type Profile struct {
	Name         string            `yaml:"name"`
	Role         string            `yaml:"role"`
	Instructions []string          `yaml:"instructions"`
	Prompts      map[string]string `yaml:"prompts"`

	templates map[string]*template.Template
}

// Catalog maps roles to profiles.
type Catalog map[Role]*Profile

// A Section is one titled block of analysis passed to the report analyst.
type Section struct {
	Title string
	Body  string
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"sections": func(sections []Section) string {
		var sb strings.Builder
		for _, s := range sections {
			fmt.Fprintf(&sb, "### %s\n%s\n\n", s.Title, strings.TrimSpace(s.Body))
		}
		return sb.String()
	},
}

// ParseCatalog reads a YAML catalog and compiles its prompt templates.
func ParseCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse analyst catalog: %w", err)
	}
	for role, p := range catalog {
		if p == nil {
			return nil, fmt.Errorf("analyst %q: empty profile", role)
		}
		p.templates = make(map[string]*template.Template, len(p.Prompts))
		for name, text := range p.Prompts {
			tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
			if err != nil {
				return nil, fmt.Errorf("analyst %q: prompt %q: %w", role, name, err)
			}
			p.templates[name] = tmpl
		}
	}
	return catalog, nil
}

var defaultCatalog = sync.OnceValues(func() (Catalog, error) {
	return ParseCatalog(promptsYAML)
})

// DefaultCatalog returns the built-in analyst catalog.
func DefaultCatalog() (Catalog, error) {
	return defaultCatalog()
}

// Profile returns the profile of role, or an error if the catalog lacks it.
func (c Catalog) Profile(role Role) (*Profile, error) {
	p, ok := c[role]
	if !ok {
		return nil, fmt.Errorf("analyst catalog has no %q profile", role)
	}
	return p, nil
}

// SystemPrompt renders the persona as agent instructions.
func (p *Profile) SystemPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the %s.\nYour role: %s\n\n", p.Name, p.Role)
	for _, line := range p.Instructions {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString("\nUse markdown to format your answers.")
	return sb.String()
}

// Render executes the named prompt template with data.
func (p *Profile) Render(name string, data any) (string, error) {
	tmpl, ok := p.templates[name]
	if !ok {
		return "", fmt.Errorf("%s has no prompt %q", p.Name, name)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", name, err)
	}
	return sb.String(), nil
}
