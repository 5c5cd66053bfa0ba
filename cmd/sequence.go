package cmd

import (
	"github.com/spf13/cobra"

	"sirna/internal/sirna"
)

// sequenceCmd represents the sequence command
var sequenceCmd = &cobra.Command{
	Use:   "sequence [accession]",
	Short: "Fetch a transcript and print its coding region as FASTA",
	Long: `Fetch a nucleotide record from NCBI and print its coding region to
stdout in FASTA format. Record metadata is logged to stderr so the
sequence can be piped to a file on its own`,
	Example:                    "  sirna sequence NM_003466.4 > PAX8_cds.fa",
	Run:                        sirna.SequenceCmd,
	Aliases:                    []string{"seq", "fetch"},
	SuggestionsMinimumDistance: 2,
}

func init() {
	rootCmd.AddCommand(sequenceCmd)
}
