// Package registry holds the fixed, named sets of entities a simulation can
// be initialized from.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nvandessel/coherence/internal/models"
)

// Entry describes one entity to create at initialization.
type Entry struct {
	Name     string          `json:"name" yaml:"name"`
	Role     string          `json:"role" yaml:"role"`
	Category models.Category `json:"category" yaml:"category"`
}

const (
	// NameCore is the five-node registry: one entity per category.
	NameCore = "core"

	// NameConstellation is the core plus two latent nodes. It is the default.
	NameConstellation = "constellation"

	// DefaultName is the registry used when none is configured.
	DefaultName = NameConstellation
)

// Core returns the four coil entities plus the terminal unified field.
func Core() []Entry {
	return []Entry{
		{Name: "Architect", Role: "Structure and offer design", Category: models.CategorySilver},
		{Name: "Fury", Role: "Will and acquisition", Category: models.CategoryCrimson},
		{Name: "Flow", Role: "Synthesis and market prediction", Category: models.CategoryVoid},
		{Name: "Operator", Role: "Execution and product build", Category: models.CategoryObsidian},
		{Name: "Unified-Field", Role: "The emergent whole", Category: models.CategoryOmni},
	}
}

// Constellation returns the core registry with the latent fleet inserted
// before the terminal node.
func Constellation() []Entry {
	core := Core()
	entries := make([]Entry, 0, len(core)+2)
	entries = append(entries, core[:4]...)
	entries = append(entries,
		Entry{Name: "Shadow", Role: "Latent hunter", Category: models.CategoryCrimson},
		Entry{Name: "Aesthetic", Role: "Visual synthesis", Category: models.CategoryVoid},
	)
	entries = append(entries, core[4:]...)
	return entries
}

var registries = map[string]func() []Entry{
	NameCore:          Core,
	NameConstellation: Constellation,
}

// Names returns the known registry names, sorted.
func Names() []string {
	names := make([]string, 0, len(registries))
	for name := range registries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a fresh copy of the named registry.
func Lookup(name string) ([]Entry, error) {
	build, ok := registries[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown registry %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return build(), nil
}

// Validate checks that names are unique and non-empty and that every
// category is recognized.
func Validate(entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return fmt.Errorf("entry %d: name is required", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("entry %d: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = true
		if !e.Category.Valid() {
			return fmt.Errorf("entry %q: invalid category %q", e.Name, e.Category)
		}
	}
	return nil
}
