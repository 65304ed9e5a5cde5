// Package resources holds the per-resource configuration every lifecycle
// engine instance is parameterised with.
package resources

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

var (
	pathPattern       = regexp.MustCompile(`^[a-z][a-z-]*$`)
	collectionPattern = regexp.MustCompile(`^[a-z][a-z_]*$`)
	attributePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

// ValidAttribute reports whether name is usable as an attribute key in every
// store.
func ValidAttribute(name string) bool {
	return attributePattern.MatchString(name)
}

// Definition configures one resource type.
type Definition struct {
	Name       string                 `yaml:"name"`
	Collection string                 `yaml:"collection"`
	Nouns      map[string]domain.Noun `yaml:"nouns"`
	Searchable []string               `yaml:"searchable"`
	Filterable []string               `yaml:"filterable"`
	Sortable   []string               `yaml:"sortable"`
	Required   []string               `yaml:"required"`
	Hidden     []string               `yaml:"hidden"`
	WriteRole  domain.Role            `yaml:"write_role"`
	PurgeRole  domain.Role            `yaml:"purge_role"`

	// Hook, when set, rewrites attributes before every create and update.
	Hook Hook `yaml:"-"`
}

// Noun returns the noun for locale, falling back to English.
func (d Definition) Noun(locale string) domain.Noun {
	if n, ok := d.Nouns[locale]; ok {
		return n
	}
	return d.Nouns[domain.LocaleEnglish]
}

// CanSort reports whether field is an accepted sortBy value.
func (d Definition) CanSort(field string) bool {
	return contains(d.Sortable, field)
}

// CanFilter reports whether field is an accepted structured filter field.
func (d Definition) CanFilter(field string) bool {
	return contains(d.Filterable, field)
}

// IsHidden reports whether attr must never leave the service.
func (d Definition) IsHidden(attr string) bool {
	return contains(d.Hidden, attr)
}

type catalogFile struct {
	Resources []Definition `yaml:"resources"`
}

// Catalog is the ordered set of resource definitions.
type Catalog struct {
	defs   []Definition
	byName map[string]int
}

// Load parses the embedded catalog and attaches the built-in hooks.
func Load() (*Catalog, error) {
	c, err := Parse(catalogYAML)
	if err != nil {
		return nil, err
	}
	for i := range c.defs {
		if h, ok := builtinHooks[c.defs[i].Name]; ok {
			c.defs[i].Hook = h
		}
	}
	return c, nil
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	c := &Catalog{byName: make(map[string]int, len(f.Resources))}
	for _, d := range f.Resources {
		d, err := normalize(d)
		if err != nil {
			return nil, err
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate resource %q", d.Name)
		}
		c.byName[d.Name] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

// All returns the definitions in catalog order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Get returns the definition named name.
func (c *Catalog) Get(name string) (Definition, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

func normalize(d Definition) (Definition, error) {
	if !pathPattern.MatchString(d.Name) {
		return d, fmt.Errorf("catalog: invalid resource name %q", d.Name)
	}
	if d.Collection == "" {
		d.Collection = d.Name
	}
	if !collectionPattern.MatchString(d.Collection) {
		return d, fmt.Errorf("catalog: %s: invalid collection %q", d.Name, d.Collection)
	}
	if _, ok := d.Nouns[domain.LocaleEnglish]; !ok {
		return d, fmt.Errorf("catalog: %s: missing english noun", d.Name)
	}
	for _, list := range [][]string{d.Searchable, d.Filterable, d.Sortable, d.Required, d.Hidden} {
		for _, attr := range list {
			if !ValidAttribute(attr) {
				return d, fmt.Errorf("catalog: %s: invalid attribute %q", d.Name, attr)
			}
		}
	}
	var err error
	if d.WriteRole, err = roleOrDefault(d.Name, d.WriteRole); err != nil {
		return d, err
	}
	if d.PurgeRole, err = roleOrDefault(d.Name, d.PurgeRole); err != nil {
		return d, err
	}
	d.Sortable = appendMissing(d.Sortable, "createdAt", "updatedAt")
	return d, nil
}

func roleOrDefault(resource string, r domain.Role) (domain.Role, error) {
	if r == "" {
		return domain.RoleAdmin, nil
	}
	parsed, ok := domain.ParseRole(string(r))
	if !ok {
		return "", fmt.Errorf("catalog: %s: unknown role %q", resource, r)
	}
	return parsed, nil
}

func appendMissing(list []string, items ...string) []string {
	for _, it := range items {
		if !contains(list, it) {
			list = append(list, it)
		}
	}
	return list
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
