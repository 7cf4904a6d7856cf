package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pavelanni/chemquiz/internal/catalog"
	"github.com/pavelanni/chemquiz/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS compounds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		iupac_name TEXT NOT NULL,
		common_name TEXT NOT NULL DEFAULT '',
		local_name TEXT NOT NULL DEFAULT '',
		skeletal_formula TEXT NOT NULL,
		molecular_formula TEXT NOT NULL,
		series_general_formula TEXT NOT NULL DEFAULT '',
		functional_groups TEXT NOT NULL DEFAULT '[]',
		notes TEXT NOT NULL DEFAULT '',
		smiles TEXT NOT NULL DEFAULT '',
		categories TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS catalog_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ReplaceEntries swaps the stored catalog for entries in one transaction.
func (s *Store) ReplaceEntries(entries []model.CatalogEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM compounds`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO compounds (iupac_name, common_name, local_name, skeletal_formula, molecular_formula,
		 series_general_formula, functional_groups, notes, smiles, categories)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		groups, err := json.Marshal(nonNil(e.Compound.FunctionalGroups))
		if err != nil {
			return fmt.Errorf("encode functional groups for %s: %w", e.Compound.IUPACName, err)
		}
		categories, err := json.Marshal(e.Categories)
		if err != nil {
			return fmt.Errorf("encode categories for %s: %w", e.Compound.IUPACName, err)
		}
		c := e.Compound
		if _, err := stmt.Exec(
			c.IUPACName, c.CommonName, c.LocalName, c.SkeletalFormula, c.MolecularFormula,
			c.SeriesGeneralFormula, string(groups), c.Notes, c.SMILES, string(categories),
		); err != nil {
			return fmt.Errorf("insert %s: %w", c.IUPACName, err)
		}
	}

	return tx.Commit()
}

// ListEntries returns all stored entries in insertion order.
func (s *Store) ListEntries() ([]model.CatalogEntry, error) {
	rows, err := s.db.Query(
		`SELECT iupac_name, common_name, local_name, skeletal_formula, molecular_formula,
		 series_general_formula, functional_groups, notes, smiles, categories
		 FROM compounds ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.CatalogEntry
	for rows.Next() {
		var (
			e                  model.CatalogEntry
			groups, categories string
		)
		c := &e.Compound
		if err := rows.Scan(
			&c.IUPACName, &c.CommonName, &c.LocalName, &c.SkeletalFormula, &c.MolecularFormula,
			&c.SeriesGeneralFormula, &groups, &c.Notes, &c.SMILES, &categories,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(groups), &c.FunctionalGroups); err != nil {
			return nil, fmt.Errorf("decode functional groups for %s: %w", c.IUPACName, err)
		}
		if len(c.FunctionalGroups) == 0 {
			c.FunctionalGroups = nil
		}
		if err := json.Unmarshal([]byte(categories), &e.Categories); err != nil {
			return nil, fmt.Errorf("decode categories for %s: %w", c.IUPACName, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LoadCatalog builds a catalog from the stored entries.
func (s *Store) LoadCatalog() (*catalog.Catalog, error) {
	entries, err := s.ListEntries()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return catalog.New(entries), nil
}

// EntryCount returns the number of stored compounds.
func (s *Store) EntryCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM compounds`).Scan(&count)
	return count, err
}

func nonNil(groups []model.FunctionalGroup) []model.FunctionalGroup {
	if groups == nil {
		return []model.FunctionalGroup{}
	}
	return groups
}
