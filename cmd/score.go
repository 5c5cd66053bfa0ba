package cmd

import (
	"github.com/spf13/cobra"

	"sirna/internal/sirna"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score [sequence]",
	Short: "Score a single siRNA sense sequence",
	Long: `Score one sense-strand window against the empirical design rules.

The sequence must match the configured window width. Verbose mode lists
every rule beside the points it awarded`,
	Example:                    "  sirna score ATAATTAGCGCGTCATTAG",
	Run:                        sirna.ScoreCmd,
	SuggestionsMinimumDistance: 2,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
