package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hortanse/variant-explorer/internal/annotate"
	"github.com/hortanse/variant-explorer/internal/ensembl"
)

func newGeneCmd(a *app) *cobra.Command {
	var includeTranscripts, includePhenotypes bool

	cmd := &cobra.Command{
		Use:   "gene <symbol>...",
		Short: "Query gene information",
		Long:  "Look up genes by symbol with their GO function, Reactome/KEGG pathways and optional transcripts and phenotypes.",
		Example: `  variant-explorer gene BRCA1
  variant-explorer gene BRCA1 TP53 --include-transcripts --include-phenotypes -f json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := a.format()
			if err != nil {
				return err
			}
			client, err := a.newClient()
			if err != nil {
				return err
			}

			proc := annotate.GeneProcessor(client, annotate.GeneOptions{
				Species:            viper.GetString("species"),
				IncludeTranscripts: includeTranscripts,
				IncludePhenotypes:  includePhenotypes,
			})
			return a.runQuery(cmd.Context(), "gene", args, proc, format)
		},
	}

	cmd.Flags().String("species", ensembl.DefaultSpecies, "Species")
	cmd.Flags().BoolVar(&includeTranscripts, "include-transcripts", false, "Include transcript information")
	cmd.Flags().BoolVar(&includePhenotypes, "include-phenotypes", false, "Include phenotype associations")
	_ = viper.BindPFlag("species", cmd.Flags().Lookup("species"))

	return cmd
}
