package ensembl

import (
	"context"
	"fmt"
	"net/url"
)

// Cross-reference database filters for xrefs/id.
const (
	ExternalDBFunction = "GO"
	ExternalDBPathways = "Reactome,KEGG"
)

// DefaultSpecies and DefaultAssembly match the service defaults.
const (
	DefaultSpecies  = "human"
	DefaultAssembly = "GRCh38"
)

// Assemblies lists the genome assemblies accepted for variant lookups.
var Assemblies = []string{"GRCh37", "GRCh38"}

// GeneInfo looks up a gene by symbol, expanded with its transcripts.
func (c *Client) GeneInfo(ctx context.Context, symbol, species string) (*GeneInfo, error) {
	if species == "" {
		species = DefaultSpecies
	}
	endpoint := "lookup/symbol/" + species + "/" + symbol
	params := url.Values{}
	params.Set("expand", "1")

	var info GeneInfo
	if err := c.fetchInto(ctx, endpoint, params, &info); err != nil {
		return nil, fmt.Errorf("gene lookup %s: %w", symbol, err)
	}
	return &info, nil
}

// GeneXrefs returns the cross-references of a gene filtered by external database.
func (c *Client) GeneXrefs(ctx context.Context, geneID, externalDB string) ([]Xref, error) {
	endpoint := "xrefs/id/" + geneID
	params := url.Values{}
	params.Set("external_db", externalDB)

	var xrefs []Xref
	if err := c.fetchInto(ctx, endpoint, params, &xrefs); err != nil {
		return nil, fmt.Errorf("xrefs %s (%s): %w", geneID, externalDB, err)
	}
	return xrefs, nil
}

// GeneFunction returns the GO cross-references of a gene.
func (c *Client) GeneFunction(ctx context.Context, geneID string) ([]Xref, error) {
	return c.GeneXrefs(ctx, geneID, ExternalDBFunction)
}

// GenePathways returns the Reactome and KEGG cross-references of a gene.
func (c *Client) GenePathways(ctx context.Context, geneID string) ([]Xref, error) {
	return c.GeneXrefs(ctx, geneID, ExternalDBPathways)
}

// GenePhenotypes returns the phenotype associations of a gene.
func (c *Client) GenePhenotypes(ctx context.Context, geneID string) ([]PhenotypeAssociation, error) {
	endpoint := "phenotype/gene/" + geneID

	var phenos []PhenotypeAssociation
	if err := c.fetchInto(ctx, endpoint, nil, &phenos); err != nil {
		return nil, fmt.Errorf("phenotypes %s: %w", geneID, err)
	}
	return phenos, nil
}

// VariantInfo runs VEP for a "chr:pos:ref:alt" descriptor, requesting variant
// class, regulatory, clinical significance and allele frequency annotations.
// The descriptor is validated before any request is made.
func (c *Client) VariantInfo(ctx context.Context, descriptor, assembly string) ([]VEPResult, error) {
	d, err := ParseVariantDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	if assembly == "" {
		assembly = DefaultAssembly
	}

	endpoint := VariantEndpoint(d, assembly)
	params := url.Values{}
	for _, flag := range []string{"variant_class", "regulatory", "clinical_significance", "af", "af_1kg", "af_gnomad"} {
		params.Set(flag, "1")
	}

	raw, err := c.Fetch(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("vep %s: %w", descriptor, err)
	}
	results, err := DecodeVEPResults(raw)
	if err != nil {
		return nil, fmt.Errorf("decode vep response for %s: %w", descriptor, err)
	}
	return results, nil
}

// VariantEndpoint builds the VEP path for d on the given assembly.
func VariantEndpoint(d Descriptor, assembly string) string {
	return "vep/" + DefaultSpecies + "/" + assembly + "/" + d.Region() + "/" + d.Allele()
}
