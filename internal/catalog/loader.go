package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/chemquiz/internal/model"
)

// manifestNames are index files that may sit next to data files and are
// never parsed as compound lists.
var manifestNames = []string{"index.json", "index.yaml", "index.yml"}

// CompoundList is the document shape of a compound data file.
type CompoundList struct {
	Compounds []model.Compound `json:"compounds" yaml:"compounds"`
}

type loadOptions struct {
	logger *slog.Logger
}

// LoadOption configures FromDirectory.
type LoadOption func(*loadOptions)

// WithLogger makes the loader log each data file it reads.
func WithLogger(l *slog.Logger) LoadOption {
	return func(o *loadOptions) { o.logger = l }
}

// IsManifestFile reports whether name is a recognised index file name.
func IsManifestFile(name string) bool {
	return slices.Contains(manifestNames, strings.ToLower(name))
}

// IsDataFile reports whether name looks like a compound data file.
func IsDataFile(name string) bool {
	if IsManifestFile(name) || strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// FromDirectory builds a catalog from a directory tree. Each directory below
// root is one category label; each data file contributes its compounds at
// the path formed by the directories above it.
func FromDirectory(root string, opts ...LoadOption) (*Catalog, error) {
	o := loadOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	var entries []model.CatalogEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &ReadError{Path: path, Err: err}
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsDataFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return &ReadError{Path: path, Err: err}
		}
		categories := splitCategories(rel)
		if len(categories) == 0 {
			return fmt.Errorf("load %s: %w", path, ErrEmptyCategoryPath)
		}

		compounds, err := LoadCompoundFile(path)
		if err != nil {
			return err
		}
		for _, c := range compounds {
			entries = append(entries, model.CatalogEntry{
				Compound:   c,
				Categories: slices.Clone(categories),
			})
		}
		o.logger.Debug("loaded compound file", "path", path, "category", FormatPath(categories), "count", len(compounds))
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("catalog loaded", "root", root, "entries", len(entries))
	return &Catalog{entries: entries}, nil
}

// LoadCompoundFile parses one compound data file (JSON or YAML).
func LoadCompoundFile(path string) ([]model.Compound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	list, err := DecodeCompoundList(f, filepath.Ext(path))
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return list.Compounds, nil
}

// DecodeCompoundList decodes a compound list document. ext selects the
// format (".yaml"/".yml" for YAML, anything else for JSON).
func DecodeCompoundList(r io.Reader, ext string) (CompoundList, error) {
	var list CompoundList
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(r).Decode(&list); err != nil {
			return list, err
		}
	default:
		if err := json.NewDecoder(r).Decode(&list); err != nil {
			return list, err
		}
	}
	return list, nil
}

func splitCategories(rel string) []string {
	if rel == "." || rel == "" {
		return nil
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}
