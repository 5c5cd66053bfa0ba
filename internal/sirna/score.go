package sirna

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sirna/config"
)

// MaxScore is the highest total the design rules can award.
const MaxScore = 10

// A Rule is one empirical design criterion applied to a candidate's sense
// strand. Apply returns the points awarded and a short note for the scoring
// breakdown; no award means an empty note.
type Rule struct {
	// Name identifies the criterion in rule listings.
	Name string

	// Apply scores a sense strand against the criterion.
	Apply func(seq string) (int, string)
}

// rules are the Tuschl/Reynolds criteria in application order. Windows are
// DNA but the notes use RNA letters, matching how duplexes are ordered.
var rules = []Rule{
	{
		Name: "GC content",
		Apply: func(seq string) (int, string) {
			switch gc := gcPercent(seq); {
			case gc >= 30 && gc <= 50:
				return 2, "GC 30-50%: +2"
			case gc >= 25 && gc < 30, gc > 50 && gc <= 55:
				return 1, "GC near optimal: +1"
			}
			return 0, ""
		},
	},
	{
		Name: "5' sense A/U",
		Apply: func(seq string) (int, string) {
			if seq[0] == 'A' || seq[0] == 'T' {
				return 1, "Pos1 A/U: +1"
			}
			return 0, ""
		},
	},
	{
		Name: "3' sense G/C",
		Apply: func(seq string) (int, string) {
			if last := seq[len(seq)-1]; last == 'G' || last == 'C' {
				return 1, fmt.Sprintf("Pos%d G/C: +1", len(seq))
			}
			return 0, ""
		},
	},
	{
		// A/U richness over the last five sense bases lowers 5' antisense
		// stability so RISC loads the antisense strand.
		Name: "3' duplex asymmetry",
		Apply: func(seq string) (int, string) {
			switch at := countAT(seq[len(seq)-5:]); {
			case at >= 4:
				return 2, "3' A/U rich: +2"
			case at == 3:
				return 1, "3' A/U moderate: +1"
			}
			return 0, ""
		},
	},
	{
		Name: "No poly-runs",
		Apply: func(seq string) (int, string) {
			if !hasRun(seq, 4) {
				return 1, "No poly-runs: +1"
			}
			return 0, ""
		},
	},
	{
		Name: "5' internal stability",
		Apply: func(seq string) (int, string) {
			switch at := countAT(seq[:7]); {
			case at >= 5:
				return 2, "5' A/U rich: +2"
			case at == 4:
				return 1, "5' A/U moderate: +1"
			}
			return 0, ""
		},
	},
	{
		Name: "No 3' GC stretch",
		Apply: func(seq string) (int, string) {
			gc := 0
			for i := len(seq) - 4; i < len(seq); i++ {
				if seq[i] == 'G' || seq[i] == 'C' {
					gc++
				}
			}
			if gc <= 2 {
				return 1, "No 3' GC stretch: +1"
			}
			return 0, ""
		},
	},
}

// Rules returns the design criteria in the order they are applied.
func Rules() []Rule {
	return rules
}

// Score totals every design rule against a sense strand and returns the
// per-rule notes that contributed to the total.
func Score(seq string) (int, []string) {
	total := 0
	var notes []string
	for _, r := range rules {
		pts, note := r.Apply(seq)
		if pts > 0 {
			total += pts
			notes = append(notes, note)
		}
	}
	return total, notes
}

// ScoreCmd takes a cobra command with a sense window argument and prints
// the window's design score. Verbose mode lists every rule, awarded or not.
func ScoreCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		cmd.Help()
		stderr.Fatalln("\nno sequence passed.")
	}

	conf := config.New()
	seq := normalizeSequence(strings.Join(args, ""))
	if err := checkWindow(seq, conf.Design.Window); err != nil {
		stderr.Fatalln(err)
	}

	total, notes := Score(seq)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 3, ' ', 0)
	fmt.Fprintf(w, "sense\t5'-%s-dTdT-3'\n", seq)
	fmt.Fprintf(w, "antisense\t5'-%s-dTdT-3'\n", reverseComplement(seq))
	fmt.Fprintf(w, "GC\t%s%%\n", formatGC(gcPercent(seq)))
	fmt.Fprintf(w, "score\t%d/%d\n", total, MaxScore)
	w.Flush()

	if conf.Verbose {
		fmt.Println()
		rw := tabwriter.NewWriter(os.Stdout, 0, 4, 3, ' ', 0)
		for _, r := range Rules() {
			pts, _ := r.Apply(seq)
			fmt.Fprintf(rw, "%s\t+%d\n", r.Name, pts)
		}
		rw.Flush()
	} else if len(notes) > 0 {
		fmt.Printf("\n%s\n", strings.Join(notes, "; "))
	}
}

// countAT returns the number of A and T bases in seq.
func countAT(seq string) int {
	at := 0
	for i := 0; i < len(seq); i++ {
		if seq[i] == 'A' || seq[i] == 'T' {
			at++
		}
	}
	return at
}

// hasRun reports whether seq contains n or more consecutive identical bases.
func hasRun(seq string, n int) bool {
	run := 1
	for i := 1; i < len(seq); i++ {
		if seq[i] == seq[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
