// Package annotate flattens Ensembl gene and variant responses into records.
package annotate

import (
	"bytes"
	"encoding/json"

	"gopkg.in/guregu/null.v3"
)

// Frequency sources preferred for the global allele frequency, in order.
const (
	SourceGnomAD      = "gnomAD"
	Source1000Genomes = "1000GENOMES"
)

// Record is a normalized query result.
type Record interface {
	Row() Row
}

// GeneRecord holds the flattened annotation of one gene.
// Optional fields are nil when their input was not requested.
type GeneRecord struct {
	Symbol      string
	ID          string
	Description string
	Location    string // "<chrom>:<start>-<end>"
	Biotype     string
	Function    *string            // GO term descriptions, comma-joined
	Pathways    *string            // Reactome/KEGG descriptions, comma-joined
	Transcripts []TranscriptRecord // nil unless requested and present
	Phenotypes  []PhenotypeRecord  // nil unless requested
}

// TranscriptRecord describes one transcript of a gene.
type TranscriptRecord struct {
	ID          string `json:"transcript_id"`
	Name        string `json:"transcript_name"`
	Biotype     string `json:"biotype"`
	IsCanonical bool   `json:"is_canonical"`
}

// PhenotypeRecord is one phenotype associated with a gene.
type PhenotypeRecord struct {
	Description string `json:"description"`
	Source      string `json:"source"`
}

// PopulationFrequencyTable maps source name to population or allele code to frequency.
type PopulationFrequencyTable map[string]map[string]float64

// VariantRecord holds the flattened annotation of one variant. A nil
// *VariantRecord is the empty record and renders as an empty row.
type VariantRecord struct {
	ID                    string
	Location              string // "<chrom>:<pos>"
	Reference             string
	Alternate             string
	Effect                string // most severe consequence
	Consequence           *string
	ClinicalSignificance  *string
	GlobalFrequency       *null.Float // invalid (rendered "") when the preferred source lacks the alternate allele
	PopulationFrequencies PopulationFrequencyTable
}

// Row returns the gene as an ordered flat row.
func (g *GeneRecord) Row() Row {
	if g == nil {
		return Row{}
	}
	row := Row{
		{"gene_symbol", g.Symbol},
		{"gene_id", g.ID},
		{"description", g.Description},
		{"location", g.Location},
		{"biotype", g.Biotype},
	}
	if g.Function != nil {
		row = append(row, Field{"function", *g.Function})
	}
	if g.Pathways != nil {
		row = append(row, Field{"pathways", *g.Pathways})
	}
	if g.Transcripts != nil {
		row = append(row, Field{"transcripts", g.Transcripts})
	}
	if g.Phenotypes != nil {
		row = append(row, Field{"phenotypes", g.Phenotypes})
	}
	return row
}

// Row returns the variant as an ordered flat row.
func (v *VariantRecord) Row() Row {
	if v == nil {
		return Row{}
	}
	row := Row{
		{"variant_id", v.ID},
		{"location", v.Location},
		{"reference", v.Reference},
		{"alternate", v.Alternate},
		{"variant_effect", v.Effect},
	}
	if v.Consequence != nil {
		row = append(row, Field{"consequence", *v.Consequence})
	}
	if v.ClinicalSignificance != nil {
		row = append(row, Field{"clinical_significance", *v.ClinicalSignificance})
	}
	if v.GlobalFrequency != nil {
		var f any = ""
		if v.GlobalFrequency.Valid {
			f = v.GlobalFrequency.Float64
		}
		row = append(row, Field{"global_frequency", f})
	}
	if v.PopulationFrequencies != nil {
		row = append(row, Field{"population_frequencies", v.PopulationFrequencies})
	}
	return row
}

// Field is one named value of a Row.
type Field struct {
	Key   string
	Value any
}

// Row is a flat record whose fields keep their insertion order.
type Row []Field

// Get returns the value stored under key.
func (r Row) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the field names in order.
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// MarshalJSON encodes the row as a JSON object in field order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(&buf, f.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeValue(&buf, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeValue appends v as JSON without HTML escaping or a trailing newline.
func encodeValue(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
