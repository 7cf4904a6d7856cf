package store

import (
	"database/sql"
	"strconv"
	"time"
)

// ImportInfo records where the stored catalog came from.
type ImportInfo struct {
	Source      string
	Fingerprint string
	Entries     int
	ImportedAt  time.Time
}

// SetMetadata upserts a key-value pair in the catalog_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO catalog_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM catalog_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetImportInfo stores all ImportInfo fields as metadata rows.
func (s *Store) SetImportInfo(info ImportInfo) error {
	pairs := []struct{ k, v string }{
		{"source", info.Source},
		{"fingerprint", info.Fingerprint},
		{"entries", strconv.Itoa(info.Entries)},
		{"imported_at", info.ImportedAt.UTC().Format(time.RFC3339)},
	}
	for _, p := range pairs {
		if err := s.SetMetadata(p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetImportInfo reads ImportInfo from metadata. A store that was never
// imported into returns the zero value.
func (s *Store) GetImportInfo() (ImportInfo, error) {
	var info ImportInfo
	var err error

	if info.Source, err = s.GetMetadata("source"); err != nil {
		return info, err
	}
	if info.Fingerprint, err = s.GetMetadata("fingerprint"); err != nil {
		return info, err
	}
	n, err := s.GetMetadata("entries")
	if err != nil {
		return info, err
	}
	if n != "" {
		if info.Entries, err = strconv.Atoi(n); err != nil {
			return info, err
		}
	}
	at, err := s.GetMetadata("imported_at")
	if err != nil {
		return info, err
	}
	if at != "" {
		if info.ImportedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return info, err
		}
	}
	return info, nil
}
