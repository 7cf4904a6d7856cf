package catalog

import (
	"slices"
	"strings"

	"github.com/pavelanni/chemquiz/internal/model"
)

// Catalog indexes compounds by category path. It is read-only once built.
type Catalog struct {
	entries []model.CatalogEntry
}

// New creates a catalog from the given entries. Duplicates are kept.
func New(entries []model.CatalogEntry) *Catalog {
	owned := make([]model.CatalogEntry, len(entries))
	for i, e := range entries {
		owned[i] = model.CatalogEntry{
			Compound:   e.Compound.Clone(),
			Categories: slices.Clone(e.Categories),
		}
	}
	return &Catalog{entries: owned}
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of every entry.
func (c *Catalog) Entries() []model.CatalogEntry {
	out := make([]model.CatalogEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = model.CatalogEntry{
			Compound:   e.Compound.Clone(),
			Categories: slices.Clone(e.Categories),
		}
	}
	return out
}

// AllCompounds returns every compound in entry order.
func (c *Catalog) AllCompounds() []model.Compound {
	out := make([]model.Compound, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Compound.Clone()
	}
	return out
}

// AvailablePaths returns every prefix of every entry's category path,
// deduplicated and sorted.
func (c *Catalog) AvailablePaths() [][]string {
	seen := make(map[string]struct{})
	var paths [][]string
	for _, e := range c.entries {
		for depth := 1; depth <= len(e.Categories); depth++ {
			prefix := e.Categories[:depth]
			key := pathKey(prefix)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			paths = append(paths, slices.Clone(prefix))
		}
	}
	slices.SortFunc(paths, func(a, b []string) int { return slices.Compare(a, b) })
	return paths
}

// CompoundsFor returns every compound whose category path starts with path.
func (c *Catalog) CompoundsFor(path []string) ([]model.Compound, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}

	var matches []model.Compound
	for _, e := range c.entries {
		if hasPrefix(e.Categories, path) {
			matches = append(matches, e.Compound.Clone())
		}
	}
	if len(matches) == 0 {
		return nil, &CategoryNotFoundError{Path: FormatPath(path)}
	}
	return matches, nil
}

func hasPrefix(categories, prefix []string) bool {
	return len(categories) >= len(prefix) && slices.Equal(categories[:len(prefix)], prefix)
}

// pathKey joins segments with a separator that cannot appear in a label read
// from a file name or JSON string without being escaped.
func pathKey(path []string) string {
	return strings.Join(path, "\x00")
}

// FormatPath renders a category path for display.
func FormatPath(path []string) string {
	if len(path) == 0 {
		return "Not selected"
	}
	return strings.Join(path, " / ")
}
