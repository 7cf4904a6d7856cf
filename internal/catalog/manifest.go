package catalog

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/chemquiz/internal/model"
)

// Manifest describes where each category's data file lives.
type Manifest struct {
	Roots []Node `json:"roots" yaml:"roots"`
}

// Node is one category in a manifest. A node with a File is selectable,
// whether or not it also has children.
type Node struct {
	Label    string `json:"label" yaml:"label"`
	Slug     string `json:"slug" yaml:"slug"`
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	Children []Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Leaves flattens the manifest depth-first, emitting one leaf per node that
// carries a file. Sibling order is preserved.
func (m Manifest) Leaves() []model.CatalogLeaf {
	leaves := []model.CatalogLeaf{}
	var prefix []string
	for _, root := range m.Roots {
		prefix = gatherLeaves(root, prefix, &leaves)
	}
	return leaves
}

func gatherLeaves(n Node, prefix []string, leaves *[]model.CatalogLeaf) []string {
	prefix = append(prefix, n.Label)
	if n.File != "" {
		*leaves = append(*leaves, model.CatalogLeaf{
			Path: slices.Clone(prefix),
			File: n.File,
		})
	}
	for _, child := range n.Children {
		prefix = gatherLeaves(child, prefix, leaves)
	}
	return prefix[:len(prefix)-1]
}

// SortLeaves orders leaves by path for display.
func SortLeaves(leaves []model.CatalogLeaf) {
	slices.SortStableFunc(leaves, func(a, b model.CatalogLeaf) int {
		return slices.Compare(a.Path, b.Path)
	})
}

// LoadManifest reads a manifest document. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func LoadManifest(file string) (*Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &ReadError{Path: file, Err: err}
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, &ParseError{Path: file, Err: err}
	}
	return &m, nil
}

// BuildManifest generates a manifest for a catalog directory. File
// references are relative to root and prefixed with base (for example the
// URL path the directory is served under).
func BuildManifest(root, base string) (*Manifest, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &ReadError{Path: root, Err: err}
	}

	m := &Manifest{}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !e.IsDir() {
			if IsDataFile(e.Name()) {
				return nil, fmt.Errorf("load %s: %w", filepath.Join(root, e.Name()), ErrEmptyCategoryPath)
			}
			continue
		}
		node, ok, err := buildNode(root, e.Name(), base)
		if err != nil {
			return nil, err
		}
		if ok {
			m.Roots = append(m.Roots, node)
		}
	}
	sortNodes(m.Roots)
	return m, nil
}

func buildNode(root, rel, base string) (Node, bool, error) {
	dir := filepath.Join(root, rel)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Node{}, false, &ReadError{Path: dir, Err: err}
	}

	slug := filepath.Base(rel)
	node := Node{Label: labelFromSlug(slug), Slug: slug}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			child, ok, err := buildNode(root, filepath.Join(rel, name), base)
			if err != nil {
				return Node{}, false, err
			}
			if ok {
				node.Children = append(node.Children, child)
			}
			continue
		}
		if IsDataFile(name) {
			files = append(files, name)
		}
	}

	ref := func(name string) string {
		return path.Join(base, filepath.ToSlash(filepath.Join(rel, name)))
	}
	switch len(files) {
	case 0:
	case 1:
		node.File = ref(files[0])
	default:
		for _, name := range files {
			stem := strings.TrimSuffix(name, filepath.Ext(name))
			node.Children = append(node.Children, Node{
				Label: labelFromSlug(stem),
				Slug:  stem,
				File:  ref(name),
			})
		}
	}

	sortNodes(node.Children)
	return node, node.File != "" || len(node.Children) > 0, nil
}

func sortNodes(nodes []Node) {
	slices.SortStableFunc(nodes, func(a, b Node) int {
		return cmp.Compare(a.Label, b.Label)
	})
}

func labelFromSlug(slug string) string {
	return strings.ReplaceAll(slug, "_", " ")
}
