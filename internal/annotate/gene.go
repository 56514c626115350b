package annotate

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hortanse/variant-explorer/internal/ensembl"
)

// GeneSource fetches the gene data a gene query needs.
type GeneSource interface {
	GeneInfo(ctx context.Context, symbol, species string) (*ensembl.GeneInfo, error)
	GeneFunction(ctx context.Context, geneID string) ([]ensembl.Xref, error)
	GenePathways(ctx context.Context, geneID string) ([]ensembl.Xref, error)
	GenePhenotypes(ctx context.Context, geneID string) ([]ensembl.PhenotypeAssociation, error)
}

// GeneOptions selects the optional enrichments of a gene query.
type GeneOptions struct {
	Species            string
	IncludeTranscripts bool
	IncludePhenotypes  bool
}

// GeneProcessor returns a Processor that looks up a gene symbol, fetches its
// function and pathway cross-references (and phenotypes if requested), and
// normalizes the result.
func GeneProcessor(src GeneSource, opts GeneOptions) Processor {
	return func(ctx context.Context, symbol string) (Record, error) {
		info, err := src.GeneInfo(ctx, symbol, opts.Species)
		if err != nil {
			return nil, err
		}
		if info.ID == "" {
			return nil, fmt.Errorf("gene lookup %s: response has no id", symbol)
		}

		function, err := src.GeneFunction(ctx, info.ID)
		if err != nil {
			return nil, err
		}
		pathways, err := src.GenePathways(ctx, info.ID)
		if err != nil {
			return nil, err
		}

		var phenotypes []ensembl.PhenotypeAssociation
		if opts.IncludePhenotypes {
			phenotypes, err = src.GenePhenotypes(ctx, info.ID)
			if err != nil {
				return nil, err
			}
		}

		return NormalizeGene(*info, function, pathways, opts.IncludeTranscripts, phenotypes), nil
	}
}

// NormalizeGene flattens a gene lookup and its optional enrichments.
//
// A nil function, pathways or phenotypes slice means the input was not
// supplied and the matching field is left out; a non-nil empty slice yields
// a present but empty field. Transcripts are included only when requested
// and the lookup carried a transcript list.
func NormalizeGene(info ensembl.GeneInfo, function, pathways []ensembl.Xref, includeTranscripts bool, phenotypes []ensembl.PhenotypeAssociation) *GeneRecord {
	rec := &GeneRecord{
		Symbol:      info.DisplayName,
		ID:          info.ID,
		Description: info.Description,
		Location:    fmt.Sprintf("%s:%s-%s", info.SeqRegionName, info.Start, info.End),
		Biotype:     info.Biotype,
	}

	if function != nil {
		s := joinDescriptions(function, ensembl.ExternalDBFunction)
		rec.Function = &s
	}

	if pathways != nil {
		s := joinDescriptions(pathways, "Reactome", "KEGG")
		rec.Pathways = &s
	}

	if includeTranscripts && info.Transcripts != nil {
		rec.Transcripts = make([]TranscriptRecord, 0, len(info.Transcripts))
		for _, t := range info.Transcripts {
			rec.Transcripts = append(rec.Transcripts, TranscriptRecord{
				ID:          t.ID,
				Name:        t.DisplayName,
				Biotype:     t.Biotype,
				IsCanonical: bool(t.IsCanonical),
			})
		}
	}

	if phenotypes != nil {
		rec.Phenotypes = make([]PhenotypeRecord, 0, len(phenotypes))
		for _, p := range phenotypes {
			if p.Phenotype.Description == "" {
				continue
			}
			rec.Phenotypes = append(rec.Phenotypes, PhenotypeRecord{
				Description: p.Phenotype.Description,
				Source:      p.Source.Name,
			})
		}
	}

	return rec
}

// joinDescriptions joins the non-empty descriptions of xrefs from the given databases.
func joinDescriptions(xrefs []ensembl.Xref, dbnames ...string) string {
	var descs []string
	for _, x := range xrefs {
		if x.Description == "" || !slices.Contains(dbnames, x.DBName) {
			continue
		}
		descs = append(descs, x.Description)
	}
	return strings.Join(descs, ", ")
}
