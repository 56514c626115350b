package annotate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/hortanse/variant-explorer/internal/ensembl"
)

// ErrMalformedAlleleString is returned when a VEP result's allele string has
// fewer than two "/"-separated alleles.
var ErrMalformedAlleleString = errors.New("malformed allele string")

// VariantSource fetches VEP results for a variant descriptor.
type VariantSource interface {
	VariantInfo(ctx context.Context, descriptor, assembly string) ([]ensembl.VEPResult, error)
}

// VariantOptions selects the assembly and optional enrichments of a variant query.
type VariantOptions struct {
	Assembly           string
	IncludePopulations bool
}

// VariantProcessor returns a Processor that runs VEP for a descriptor and
// normalizes the result.
func VariantProcessor(src VariantSource, opts VariantOptions) Processor {
	return func(ctx context.Context, descriptor string) (Record, error) {
		results, err := src.VariantInfo(ctx, descriptor, opts.Assembly)
		if err != nil {
			return nil, err
		}
		rec, err := NormalizeVariant(results, opts.IncludePopulations)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", descriptor, err)
		}
		return rec, nil
	}
}

// NormalizeVariant flattens a VEP response. Only the first result is used.
// An empty response yields a nil record (the empty record) and no error.
//
// The global frequency is read from every colocated variant carrying
// frequencies, preferring gnomAD over 1000 Genomes within an entry; a later
// entry overwrites an earlier one.
func NormalizeVariant(results []ensembl.VEPResult, includePopulations bool) (*VariantRecord, error) {
	if len(results) == 0 {
		return nil, nil
	}
	first := results[0]

	alleles := strings.Split(first.AlleleString, "/")
	if len(alleles) < 2 {
		return nil, fmt.Errorf("%w %q", ErrMalformedAlleleString, first.AlleleString)
	}

	rec := &VariantRecord{
		ID:        first.ID,
		Location:  first.SeqRegionName + ":" + first.Start.String(),
		Reference: alleles[0],
		Alternate: alleles[1],
		Effect:    first.MostSevereConsequence,
	}

	if len(first.TranscriptConsequences) > 0 {
		tc := first.TranscriptConsequences[0]
		if tc.AminoAcids != nil && tc.ProteinStart != nil {
			s := "p." + strings.ReplaceAll(*tc.AminoAcids, "/", "to") + tc.ProteinStart.String()
			rec.Consequence = &s
		}
	}

	if first.ClinicalSignificance != nil {
		s := strings.Join(first.ClinicalSignificance, ", ")
		rec.ClinicalSignificance = &s
	}

	if first.ColocatedVariants != nil {
		for _, cv := range first.ColocatedVariants {
			if freqs, ok := preferredFrequencies(cv.Frequencies); ok {
				f, found := freqs[rec.Alternate]
				gf := null.NewFloat(f, found)
				rec.GlobalFrequency = &gf
			}
		}
	}

	if includePopulations && first.ColocatedVariants != nil {
		table := make(PopulationFrequencyTable)
		for _, cv := range first.ColocatedVariants {
			for source, freqs := range cv.Frequencies {
				if table[source] == nil {
					table[source] = make(map[string]float64, len(freqs))
				}
				for pop, f := range freqs {
					table[source][pop] = f
				}
			}
		}
		if len(table) > 0 {
			rec.PopulationFrequencies = table
		}
	}

	return rec, nil
}

// preferredFrequencies returns the gnomAD frequencies if present, else the
// 1000 Genomes ones.
func preferredFrequencies(freqs map[string]map[string]float64) (map[string]float64, bool) {
	for _, source := range []string{SourceGnomAD, Source1000Genomes} {
		if f, ok := freqs[source]; ok {
			return f, true
		}
	}
	return nil, false
}
