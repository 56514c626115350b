package ensembl

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// GeneInfo is the response of lookup/symbol with expand=1.
type GeneInfo struct {
	ID            string       `json:"id"`
	DisplayName   string       `json:"display_name"`
	Description   string       `json:"description"`
	SeqRegionName string       `json:"seq_region_name"`
	Start         json.Number  `json:"start"`
	End           json.Number  `json:"end"`
	Strand        int          `json:"strand"`
	Biotype       string       `json:"biotype"`
	AssemblyName  string       `json:"assembly_name"`
	Transcripts   []Transcript `json:"Transcript"` // nil unless the lookup was expanded
}

// Transcript is one entry of an expanded gene lookup.
type Transcript struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Biotype     string `json:"biotype"`
	IsCanonical Flag   `json:"is_canonical"`
}

// Xref is a cross-reference returned by xrefs/id.
type Xref struct {
	DBName      string `json:"dbname"`
	PrimaryID   string `json:"primary_id"`
	DisplayID   string `json:"display_id"`
	Description string `json:"description"`
}

// PhenotypeAssociation is one entry returned by phenotype/gene.
type PhenotypeAssociation struct {
	Phenotype PhenotypeTerm `json:"phenotype"`
	Source    SourceRef     `json:"source"`
}

// PhenotypeTerm accepts either {"description": "..."} or a bare string.
type PhenotypeTerm struct {
	Description string `json:"description"`
}

func (p *PhenotypeTerm) UnmarshalJSON(data []byte) error {
	if s, ok := asString(data); ok {
		p.Description = s
		return nil
	}
	type plain PhenotypeTerm
	return json.Unmarshal(data, (*plain)(p))
}

// SourceRef accepts either {"name": "..."} or a bare string.
type SourceRef struct {
	Name string `json:"name"`
}

func (s *SourceRef) UnmarshalJSON(data []byte) error {
	if v, ok := asString(data); ok {
		s.Name = v
		return nil
	}
	type plain SourceRef
	return json.Unmarshal(data, (*plain)(s))
}

// VEPResult is one element of a VEP region response. The service returns
// one element per input variant.
type VEPResult struct {
	ID                     string                  `json:"id"`
	Input                  string                  `json:"input"`
	SeqRegionName          string                  `json:"seq_region_name"`
	Start                  json.Number             `json:"start"`
	End                    json.Number             `json:"end"`
	AlleleString           string                  `json:"allele_string"`
	AssemblyName           string                  `json:"assembly_name"`
	VariantClass           string                  `json:"variant_class"`
	MostSevereConsequence  string                  `json:"most_severe_consequence"`
	TranscriptConsequences []TranscriptConsequence `json:"transcript_consequences"`
	ClinicalSignificance   []string                `json:"clinical_significance"`
	ColocatedVariants      []ColocatedVariant      `json:"colocated_variants"`
}

// TranscriptConsequence is the predicted effect on one transcript.
// AminoAcids and ProteinStart are nil when the service omits them.
type TranscriptConsequence struct {
	TranscriptID     string       `json:"transcript_id"`
	GeneSymbol       string       `json:"gene_symbol"`
	ConsequenceTerms []string     `json:"consequence_terms"`
	Impact           string       `json:"impact"`
	AminoAcids       *string      `json:"amino_acids"`
	ProteinStart     *json.Number `json:"protein_start"`
}

// ColocatedVariant is a known variant at the queried position. Frequencies
// maps source name to population/allele code to frequency and is nil when
// the service reports none.
type ColocatedVariant struct {
	ID           string                        `json:"id"`
	AlleleString string                        `json:"allele_string"`
	Frequencies  map[string]map[string]float64 `json:"frequencies"`
}

// DecodeVEPResults decodes a VEP response body. A body whose top level is not
// an array decodes to nil without error.
func DecodeVEPResults(raw json.RawMessage) ([]VEPResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil
	}
	var results []VEPResult
	if err := json.Unmarshal(trimmed, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Flag is a boolean that also accepts the 0/1 integers Ensembl uses.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch s := string(bytes.TrimSpace(data)); s {
	case "null", "":
		return nil
	case "true":
		*f = true
		return nil
	case "false":
		*f = false
		return nil
	default:
		if v, ok := asString(data); ok {
			s = v
		}
		if b, err := strconv.ParseBool(s); err == nil {
			*f = Flag(b)
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = n != 0
		return nil
	}
}

func asString(data []byte) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}
