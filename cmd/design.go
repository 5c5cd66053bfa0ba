package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sirna/internal/sirna"
)

// designCmd represents the design command
var designCmd = &cobra.Command{
	Use:   "design [accession]",
	Short: "Design an siRNA shortlist against a transcript",
	Long: `Design siRNA candidates against the coding region of a transcript.

"sirna design" fetches the transcript record from NCBI, then:

1. Cuts every candidate window from the coding region and scores it
   against Tuschl/Reynolds design rules
2. Drops windows that recur near-identically elsewhere in the coding
   region or fall outside the acceptable GC band
3. Screens the top-scored survivors against NCBI BLAST when --blast is
   set, failing candidates with transcriptome-wide matches
4. Ranks what remains and writes a candidate CSV plus a bench-ready
   text report`,
	Example: `  sirna design NM_003466.4 --gene PAX8 --gene-name "Paired Box 8"
  sirna design NM_003466.4 -g PAX8 --blast -o pax8.csv -r pax8.txt`,
	Run:                        sirna.DesignCmd,
	SuggestionsMinimumDistance: 2,
}

// set flags for the design command
func init() {
	rootCmd.AddCommand(designCmd)

	// Flags naming the target and the outputs
	designCmd.Flags().StringP("accession", "a", "", "versioned RefSeq accession of the target mRNA")
	designCmd.Flags().StringP("gene", "g", "", "gene symbol, used to name outputs and excuse self-hits in BLAST")
	designCmd.Flags().String("gene-name", "", "descriptive gene name for the report header")
	designCmd.Flags().StringP("out", "o", "", "output path for the candidate CSV")
	designCmd.Flags().StringP("report", "r", "", "output path for the text report")
	designCmd.Flags().BoolP("blast", "b", false, "screen candidates against NCBI BLAST (slow)")

	// Tunables that live in the settings file. Flags win when passed
	designCmd.Flags().IntP("window", "w", 19, "candidate window width in bases")
	designCmd.Flags().Int("top-scored", 50, "candidates kept ahead of off-target screening")
	designCmd.Flags().Int("shortlist", 10, "maximum candidates in the final shortlist")
	designCmd.Flags().Float64("gc-min", 25, "lowest acceptable GC percentage")
	designCmd.Flags().Float64("gc-max", 55, "highest acceptable GC percentage")
	designCmd.Flags().Bool("strict", false, "drop candidates whose off-target check did not complete")
	designCmd.Flags().Int("blast-workers", 2, "concurrent BLAST screens")

	// Bind the tunables to viper. Only design binds these keys, a second
	// BindPFlag on the same key would silently unbind this command's flags
	viper.BindPFlag("design.window", designCmd.Flags().Lookup("window"))
	viper.BindPFlag("design.top-scored", designCmd.Flags().Lookup("top-scored"))
	viper.BindPFlag("design.shortlist", designCmd.Flags().Lookup("shortlist"))
	viper.BindPFlag("design.gc-min", designCmd.Flags().Lookup("gc-min"))
	viper.BindPFlag("design.gc-max", designCmd.Flags().Lookup("gc-max"))
	viper.BindPFlag("design.strict", designCmd.Flags().Lookup("strict"))
	viper.BindPFlag("blast.workers", designCmd.Flags().Lookup("blast-workers"))
}
