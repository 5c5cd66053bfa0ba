package sirna

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"sirna/config"
)

// csvHeader is the column layout of the candidate sheet.
var csvHeader = []string{"rank", "position", "sense_seq", "antisense_seq", "gc_percent", "score", "off_target"}

// writeCSV writes the shortlist to filename, one candidate per row.
func writeCSV(filename string, cands []*Candidate) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	defer f.Close()

	if err := writeCSVTo(f, cands); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

func writeCSVTo(out io.Writer, cands []*Candidate) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, c := range cands {
		record := []string{
			strconv.Itoa(c.Rank),
			strconv.Itoa(c.Position),
			c.Sense,
			c.Antisense,
			formatGC(c.GCPercent),
			strconv.Itoa(c.Score),
			string(c.OffTarget),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// writeReport writes the full text report to filename.
func writeReport(filename string, flags *Flags, conf *config.Config, tr *Transcript, cands []*Candidate, runID string) error {
	report := buildReport(flags, conf, tr, cands, runID, time.Now())
	if err := os.WriteFile(filename, []byte(report), 0644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// buildReport renders the shortlist as the bench-ready text report:
// provenance, design criteria, the top picks with full duplexes and the
// ordering and usage boilerplate.
func buildReport(flags *Flags, conf *config.Config, tr *Transcript, cands []*Candidate, runID string, now time.Time) string {
	border := strings.Repeat("=", 50)
	thin := strings.Repeat("-", 30)
	wide := strings.Repeat("-", 50)

	geneLine := "Gene: " + flags.gene
	if flags.geneName != "" {
		geneLine = fmt.Sprintf("Gene: %s (%s)", flags.gene, flags.geneName)
	}

	var report []string
	report = append(report,
		border,
		fmt.Sprintf("%s siRNA Design Report", flags.gene),
		border,
		"Generated: "+now.Format("2006-01-02 15:04:05"),
		"Run: "+runID,
		"",
		"GENE INFORMATION",
		thin,
		geneLine,
		"RefSeq: "+tr.Accession,
		"Organism: "+tr.Organism,
		fmt.Sprintf("CDS Length: %d bp", len(tr.CDS)),
		fmt.Sprintf("CDS Region: %d-%d", tr.CDSStart, tr.CDSEnd),
		"",
		"DESIGN CRITERIA",
		thin,
		fmt.Sprintf("- siRNA length: %d nt + dTdT overhang", conf.Design.Window),
		"- GC content: 30-50% (optimal)",
		"- Tuschl/Reynolds scoring rules applied",
		fmt.Sprintf("- Off-target threshold: <%d/%d match", conf.Design.LocalIdentity(), conf.Design.Window),
		"",
		"TOP 3 RECOMMENDED siRNAs",
		border,
	)

	top := cands
	if len(top) > 3 {
		top = top[:3]
	}
	for i, c := range top {
		report = append(report,
			"",
			fmt.Sprintf("#%d (Score: %d/%d)", i+1, c.Score, MaxScore),
			fmt.Sprintf("   Position: %d-%d", c.Position, c.Position+len(c.Sense)-1),
			fmt.Sprintf("   Sense:     5'-%s-dTdT-3'", c.Sense),
			fmt.Sprintf("   Antisense: 5'-%s-dTdT-3'", c.Antisense),
			fmt.Sprintf("   GC: %s%%", formatGC(c.GCPercent)),
			fmt.Sprintf("   Off-target: %s", c.OffTarget),
		)
		if len(c.ScoreNotes) > 0 {
			report = append(report, "   Scoring: "+strings.Join(c.ScoreNotes, "; "))
		}
	}

	report = append(report,
		"",
		fmt.Sprintf("ALL TOP %d CANDIDATES", len(cands)),
		wide,
		fmt.Sprintf("%-6s%-8s%-8s%-8s%s", "Rank", "Pos", "Score", "GC%", "Sense Sequence (5'-3')"),
		wide,
	)
	for _, c := range cands {
		report = append(report,
			fmt.Sprintf("%-6d%-8d%-8d%-8s%s", c.Rank, c.Position, c.Score, formatGC(c.GCPercent), c.Sense))
	}

	report = append(report,
		"",
		"ORDERING FORMAT",
		thin,
		"- Standard desalted, 20 nmol scale",
		"- Include dTdT 3' overhangs on both strands",
		"- Order as single-stranded oligos for annealing",
		"  or as pre-annealed duplexes",
		"",
		"USAGE NOTES",
		thin,
		"- Recommended concentration: 20-50 nM",
		"- Transfection: Lipofectamine RNAiMAX or similar",
		"- Validate knockdown by qPCR and Western blot",
		"- Include non-targeting control siRNA",
		"",
		border,
		"End of Report",
		border,
	)

	return strings.Join(report, "\n") + "\n"
}

// printSummary writes the end-of-run console summary.
func printSummary(out io.Writer, flags *Flags, cands []*Candidate, elapsed time.Duration) {
	border := strings.Repeat("=", 50)
	top := cands[0]

	fmt.Fprintln(out, border)
	fmt.Fprintln(out, "DESIGN COMPLETE")
	fmt.Fprintln(out, border)

	fmt.Fprintln(out, "\nTop siRNA candidate:")
	w := tabwriter.NewWriter(out, 0, 4, 1, ' ', 0)
	fmt.Fprintf(w, "  Position:\t%d\n", top.Position)
	fmt.Fprintf(w, "  Sense:\t5'-%s-dTdT-3'\n", top.Sense)
	fmt.Fprintf(w, "  Score:\t%d/%d\n", top.Score, MaxScore)
	fmt.Fprintf(w, "  GC:\t%s%%\n", formatGC(top.GCPercent))
	w.Flush()

	fmt.Fprintln(out, "\nOutput files:")
	fmt.Fprintf(out, "  - %s\n", flags.csvOut)
	fmt.Fprintf(out, "  - %s\n", flags.reportOut)

	fmt.Fprintf(out, "\nFinished in %s\n", elapsed.Round(time.Millisecond))
}

// formatGC renders a GC percentage with one decimal, the precision the
// sheet and report columns expect.
func formatGC(gc float64) string {
	return strconv.FormatFloat(gc, 'f', 1, 64)
}
