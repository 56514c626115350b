package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hortanse/variant-explorer/internal/annotate"
	"github.com/hortanse/variant-explorer/internal/ensembl"
)

func newVariantCmd(a *app) *cobra.Command {
	var includePopulations bool

	cmd := &cobra.Command{
		Use:   "variant <chr:pos:ref:alt>...",
		Short: "Query variant information",
		Long:  "Run the Ensembl Variant Effect Predictor for variants given as chr:position:ref:alt.",
		Example: `  variant-explorer variant 17:43057063:G:A
  variant-explorer variant chr7:140753336:A:T --assembly GRCh37 --include-populations`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assembly := viper.GetString("assembly")
			if !slices.Contains(ensembl.Assemblies, assembly) {
				return fmt.Errorf("invalid assembly %q (choose from %s)", assembly, strings.Join(ensembl.Assemblies, ", "))
			}
			format, err := a.format()
			if err != nil {
				return err
			}
			client, err := a.newClient()
			if err != nil {
				return err
			}

			proc := annotate.VariantProcessor(client, annotate.VariantOptions{
				Assembly:           assembly,
				IncludePopulations: includePopulations,
			})
			return a.runQuery(cmd.Context(), "variant", args, proc, format)
		},
	}

	cmd.Flags().String("assembly", ensembl.DefaultAssembly, "Genome assembly: GRCh37 or GRCh38")
	cmd.Flags().BoolVar(&includePopulations, "include-populations", false, "Include all population frequencies")
	_ = viper.BindPFlag("assembly", cmd.Flags().Lookup("assembly"))

	return cmd
}
