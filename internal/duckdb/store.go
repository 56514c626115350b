// Package duckdb exports annotation results to a DuckDB database for ad-hoc
// SQL. Each run appends its records tagged with a run identifier and reads
// them back only to report what the run wrote.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding exported results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create export directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path, empty for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// NewRunID returns a fresh identifier for one export run.
func NewRunID() string {
	return uuid.NewString()
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS gene_results (
		run_id VARCHAR,
		input VARCHAR,
		gene_symbol VARCHAR,
		gene_id VARCHAR,
		description VARCHAR,
		location VARCHAR,
		biotype VARCHAR,
		"function" VARCHAR,
		pathways VARCHAR,
		transcripts VARCHAR,
		phenotypes VARCHAR,
		exported_at TIMESTAMP
	)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS variant_results (
		run_id VARCHAR,
		input VARCHAR,
		variant_id VARCHAR,
		location VARCHAR,
		reference VARCHAR,
		alternate VARCHAR,
		variant_effect VARCHAR,
		consequence VARCHAR,
		clinical_significance VARCHAR,
		global_frequency DOUBLE,
		population_frequencies VARCHAR,
		exported_at TIMESTAMP
	)`)
	return err
}

// Summary describes what one run exported.
type Summary struct {
	RunID    string
	Genes    int
	Variants int
	// Inputs lists the exported inputs, genes before variants, in insertion order.
	Inputs []string
}

// RunSummary reads back the gene and variant rows written under runID.
func (s *Store) RunSummary(runID string) (Summary, error) {
	genes, err := s.GeneResults(runID)
	if err != nil {
		return Summary{RunID: runID}, err
	}
	variants, err := s.VariantResults(runID)
	if err != nil {
		return Summary{RunID: runID}, err
	}

	sum := Summary{RunID: runID, Genes: len(genes), Variants: len(variants)}
	for _, g := range genes {
		sum.Inputs = append(sum.Inputs, g.Input)
	}
	for _, v := range variants {
		sum.Inputs = append(sum.Inputs, v.Input)
	}
	return sum, nil
}
