package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"
	"gopkg.in/guregu/null.v3"

	"github.com/hortanse/variant-explorer/internal/annotate"
)

// GeneResult is one exported gene record and the symbol that produced it.
type GeneResult struct {
	Input string
	Gene  *annotate.GeneRecord
}

// VariantResult is one exported variant record and the descriptor that produced it.
type VariantResult struct {
	Input   string
	Variant *annotate.VariantRecord
}

// WriteResults appends the successful records of a batch under runID and
// returns how many rows were written. Failed items and empty records are
// skipped.
func (s *Store) WriteResults(runID string, results []annotate.WorkResult) (int, error) {
	var genes []GeneResult
	var variants []VariantResult
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		switch rec := r.Record.(type) {
		case *annotate.GeneRecord:
			if rec != nil {
				genes = append(genes, GeneResult{Input: r.Input, Gene: rec})
			}
		case *annotate.VariantRecord:
			if rec != nil {
				variants = append(variants, VariantResult{Input: r.Input, Variant: rec})
			}
		}
	}

	if err := s.WriteGeneResults(runID, genes); err != nil {
		return 0, err
	}
	if err := s.WriteVariantResults(runID, variants); err != nil {
		return len(genes), err
	}
	return len(genes) + len(variants), nil
}

// WriteGeneResults batch-inserts gene results using the Appender API.
func (s *Store) WriteGeneResults(runID string, results []GeneResult) error {
	if len(results) == 0 {
		return nil
	}
	now := time.Now().UTC()

	return s.appendRows("gene_results", len(results), func(i int) ([]driver.Value, error) {
		g := results[i].Gene
		transcripts, err := jsonColumn(g.Transcripts != nil, g.Transcripts)
		if err != nil {
			return nil, err
		}
		phenotypes, err := jsonColumn(g.Phenotypes != nil, g.Phenotypes)
		if err != nil {
			return nil, err
		}
		return []driver.Value{
			runID, results[i].Input,
			g.Symbol, g.ID, g.Description, g.Location, g.Biotype,
			stringColumn(g.Function), stringColumn(g.Pathways),
			transcripts, phenotypes, now,
		}, nil
	})
}

// WriteVariantResults batch-inserts variant results using the Appender API.
func (s *Store) WriteVariantResults(runID string, results []VariantResult) error {
	if len(results) == 0 {
		return nil
	}
	now := time.Now().UTC()

	return s.appendRows("variant_results", len(results), func(i int) ([]driver.Value, error) {
		v := results[i].Variant
		populations, err := jsonColumn(v.PopulationFrequencies != nil, v.PopulationFrequencies)
		if err != nil {
			return nil, err
		}
		var freq driver.Value
		if v.GlobalFrequency != nil && v.GlobalFrequency.Valid {
			freq = v.GlobalFrequency.Float64
		}
		return []driver.Value{
			runID, results[i].Input,
			v.ID, v.Location, v.Reference, v.Alternate, v.Effect,
			stringColumn(v.Consequence), stringColumn(v.ClinicalSignificance),
			freq, populations, now,
		}, nil
	})
}

// appendRows writes n rows built by row into table through one appender.
func (s *Store) appendRows(table string, n int, row func(i int) ([]driver.Value, error)) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i := 0; i < n; i++ {
		values, err := row(i)
		if err != nil {
			return fmt.Errorf("encode %s row %d: %w", table, i, err)
		}
		if err := appender.AppendRow(values...); err != nil {
			return fmt.Errorf("append %s row: %w", table, err)
		}
	}

	return appender.Flush()
}

// GeneResults returns the gene rows exported under runID in insertion order.
func (s *Store) GeneResults(runID string) ([]GeneResult, error) {
	rows, err := s.db.Query(`SELECT
		input, gene_symbol, gene_id, description, location, biotype,
		"function", pathways, transcripts, phenotypes
		FROM gene_results
		WHERE run_id=?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query gene results: %w", err)
	}
	defer rows.Close()

	var results []GeneResult
	for rows.Next() {
		var g annotate.GeneRecord
		var input string
		var function, pathways, transcripts, phenotypes sql.NullString
		if err := rows.Scan(
			&input, &g.Symbol, &g.ID, &g.Description, &g.Location, &g.Biotype,
			&function, &pathways, &transcripts, &phenotypes,
		); err != nil {
			return nil, fmt.Errorf("scan gene result: %w", err)
		}
		g.Function = stringPtr(function)
		g.Pathways = stringPtr(pathways)
		if err := decodeColumn(transcripts, &g.Transcripts); err != nil {
			return nil, fmt.Errorf("decode transcripts: %w", err)
		}
		if err := decodeColumn(phenotypes, &g.Phenotypes); err != nil {
			return nil, fmt.Errorf("decode phenotypes: %w", err)
		}
		results = append(results, GeneResult{Input: input, Gene: &g})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gene results: %w", err)
	}
	return results, nil
}

// VariantResults returns the variant rows exported under runID in insertion order.
func (s *Store) VariantResults(runID string) ([]VariantResult, error) {
	rows, err := s.db.Query(`SELECT
		input, variant_id, location, reference, alternate, variant_effect,
		consequence, clinical_significance, global_frequency, population_frequencies
		FROM variant_results
		WHERE run_id=?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query variant results: %w", err)
	}
	defer rows.Close()

	var results []VariantResult
	for rows.Next() {
		var v annotate.VariantRecord
		var input string
		var consequence, clinical, populations sql.NullString
		var freq sql.NullFloat64
		if err := rows.Scan(
			&input, &v.ID, &v.Location, &v.Reference, &v.Alternate, &v.Effect,
			&consequence, &clinical, &freq, &populations,
		); err != nil {
			return nil, fmt.Errorf("scan variant result: %w", err)
		}
		v.Consequence = stringPtr(consequence)
		v.ClinicalSignificance = stringPtr(clinical)
		if freq.Valid {
			gf := null.FloatFrom(freq.Float64)
			v.GlobalFrequency = &gf
		}
		if err := decodeColumn(populations, &v.PopulationFrequencies); err != nil {
			return nil, fmt.Errorf("decode population frequencies: %w", err)
		}
		results = append(results, VariantResult{Input: input, Variant: &v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant results: %w", err)
	}
	return results, nil
}

func stringColumn(p *string) driver.Value {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// jsonColumn encodes v as JSON text, or NULL when present is false.
func jsonColumn(present bool, v any) (driver.Value, error) {
	if !present {
		return nil, nil
	}
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func decodeColumn(ns sql.NullString, v any) error {
	if !ns.Valid {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), v)
}
