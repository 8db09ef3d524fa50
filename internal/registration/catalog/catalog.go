// Package catalog holds the recording act type table: which resource kinds a
// type applies to and which antecedent types an amendment may target.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"landrec/internal/registration/models"
)

//go:embed act_types.yaml
var defaultActTypes []byte

// ActType is one catalog entry.
type ActType struct {
	Name              string                `yaml:"name" json:"name"`
	DisplayName       string                `yaml:"display_name" json:"display_name"`
	Category          string                `yaml:"category" json:"category"`
	AppliesTo         []models.ResourceKind `yaml:"applies_to" json:"applies_to"`
	AmendsTypes       []string              `yaml:"amends" json:"amends"`
	CreatesPartition  bool                  `yaml:"creates_partition" json:"creates_partition"`
	AllowsNewResource bool                  `yaml:"allows_new_resource" json:"allows_new_resource"`
}

// IsAmendment reports whether the type must target an antecedent act.
func (t ActType) IsAmendment() bool {
	return len(t.AmendsTypes) > 0
}

// AppliesToKind reports whether the type may be registered against kind.
func (t ActType) AppliesToKind(kind models.ResourceKind) bool {
	return slices.Contains(t.AppliesTo, kind)
}

// CanAmend reports whether antecedentType is in the declared applies-to set.
func (t ActType) CanAmend(antecedentType string) bool {
	return slices.Contains(t.AmendsTypes, antecedentType)
}

type document struct {
	ActTypes []ActType `yaml:"act_types"`
}

// Catalog is immutable after Load.
type Catalog struct {
	types map[string]ActType
	names []string
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultActTypes)
}

// Load reads a catalog file, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read act type catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode act type catalog: %w", err)
	}
	if len(doc.ActTypes) == 0 {
		return nil, fmt.Errorf("act type catalog is empty")
	}

	c := &Catalog{types: make(map[string]ActType, len(doc.ActTypes))}
	for _, t := range doc.ActTypes {
		if t.Name == "" {
			return nil, fmt.Errorf("act type without name")
		}
		if _, dup := c.types[t.Name]; dup {
			return nil, fmt.Errorf("duplicate act type %q", t.Name)
		}
		if len(t.AppliesTo) == 0 {
			return nil, fmt.Errorf("act type %q applies to no resource kind", t.Name)
		}
		for _, k := range t.AppliesTo {
			if !k.IsValid() {
				return nil, fmt.Errorf("act type %q: unknown resource kind %q", t.Name, k)
			}
		}
		if t.CreatesPartition && !t.AppliesToKind(models.ResourceKindRealEstate) {
			return nil, fmt.Errorf("act type %q creates partitions but does not apply to real estate", t.Name)
		}
		c.types[t.Name] = t
		c.names = append(c.names, t.Name)
	}
	for _, t := range c.types {
		for _, target := range t.AmendsTypes {
			if _, ok := c.types[target]; !ok {
				return nil, fmt.Errorf("act type %q amends unknown type %q", t.Name, target)
			}
		}
	}
	sort.Strings(c.names)
	return c, nil
}

// Lookup returns the act type by name.
func (c *Catalog) Lookup(name string) (ActType, bool) {
	t, ok := c.types[name]
	return t, ok
}

// All returns every act type ordered by name.
func (c *Catalog) All() []ActType {
	out := make([]ActType, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, c.types[n])
	}
	return out
}
