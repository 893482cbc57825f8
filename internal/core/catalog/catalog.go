package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog maps the small enumerations the analytics pipeline shares with the
// storefront clients: platform ids to platform names, action ids to action
// names, and the set of action names every chart bucket must carry even when
// no raw data exists for them.
//
// The catalog is loaded once at startup and never mutated — no hot reload.
type Catalog struct {
	platforms map[int]string
	actions   map[int]string
	expected  []string
}

// rawCatalog is the on-disk YAML shape.
type rawCatalog struct {
	Platforms []rawEntry `yaml:"platforms"`
	Actions   []rawEntry `yaml:"actions"`
	Expected  []string   `yaml:"expected_actions"`
}

type rawEntry struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// Default returns the built-in catalog matching the seeded database rows:
// platforms 1=ios 2=android, actions 1=view 2=atc.
func Default() *Catalog {
	return &Catalog{
		platforms: map[int]string{1: "ios", 2: "android"},
		actions:   map[int]string{1: "view", 2: "atc"},
		expected:  []string{"view", "atc"},
	}
}

// LoadFile reads a catalog from a YAML file. An empty path returns Default.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}

	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}

	c := &Catalog{
		platforms: make(map[int]string, len(raw.Platforms)),
		actions:   make(map[int]string, len(raw.Actions)),
		expected:  raw.Expected,
	}

	for _, e := range raw.Platforms {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog platform %d: name must not be empty", e.ID)
		}
		if _, exists := c.platforms[e.ID]; exists {
			return nil, fmt.Errorf("catalog platform %d: duplicate id", e.ID)
		}
		c.platforms[e.ID] = e.Name
	}
	for _, e := range raw.Actions {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog action %d: name must not be empty", e.ID)
		}
		if _, exists := c.actions[e.ID]; exists {
			return nil, fmt.Errorf("catalog action %d: duplicate id", e.ID)
		}
		c.actions[e.ID] = e.Name
	}

	if len(c.platforms) == 0 || len(c.actions) == 0 {
		return nil, fmt.Errorf("catalog file %s: platforms and actions must not be empty", path)
	}
	if len(c.expected) == 0 {
		for _, name := range c.actions {
			c.expected = append(c.expected, name)
		}
		sort.Strings(c.expected)
	}

	return c, nil
}

// PlatformName resolves a platform id to its display name.
func (c *Catalog) PlatformName(id int) (string, bool) {
	name, ok := c.platforms[id]
	return name, ok
}

// ActionName resolves an action id to its display name.
func (c *Catalog) ActionName(id int) (string, bool) {
	name, ok := c.actions[id]
	return name, ok
}

// ValidPlatform reports whether the id is a known platform.
func (c *Catalog) ValidPlatform(id int) bool {
	_, ok := c.platforms[id]
	return ok
}

// ValidAction reports whether the id is a known action.
func (c *Catalog) ValidAction(id int) bool {
	_, ok := c.actions[id]
	return ok
}

// ExpectedActions returns the action names every chart bucket must contain.
// The returned slice must not be mutated.
func (c *Catalog) ExpectedActions() []string {
	return c.expected
}
