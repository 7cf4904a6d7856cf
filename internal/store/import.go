package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pavelanni/chemquiz/internal/catalog"
)

// ImportDirectory loads a catalog directory into the store. The import is
// skipped when the directory's data files are unchanged since the last one.
// It reports whether the stored catalog was replaced.
func (s *Store) ImportDirectory(root string, force bool) (bool, error) {
	fingerprint, err := Fingerprint(root)
	if err != nil {
		return false, fmt.Errorf("fingerprint %s: %w", root, err)
	}

	info, err := s.GetImportInfo()
	if err != nil {
		return false, fmt.Errorf("check import status: %w", err)
	}
	if !force && info.Fingerprint == fingerprint {
		slog.Info("catalog unchanged, skipping import", "root", root, "entries", info.Entries)
		return false, nil
	}

	cat, err := catalog.FromDirectory(root, catalog.WithLogger(slog.Default()))
	if err != nil {
		return false, fmt.Errorf("load catalog: %w", err)
	}
	if err := s.ReplaceEntries(cat.Entries()); err != nil {
		return false, fmt.Errorf("store entries: %w", err)
	}
	if err := s.SetImportInfo(ImportInfo{
		Source:      root,
		Fingerprint: fingerprint,
		Entries:     cat.Len(),
		ImportedAt:  time.Now(),
	}); err != nil {
		return false, fmt.Errorf("record import: %w", err)
	}

	slog.Info("imported catalog", "root", root, "entries", cat.Len())
	return true, nil
}

// Fingerprint hashes the relative paths and contents of every data file
// under root, in walk order.
func Fingerprint(root string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !catalog.IsDataFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s\x00%d\x00", filepath.ToSlash(rel), len(data))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
