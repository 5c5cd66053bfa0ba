// Package sirna designs small interfering RNA duplexes against an mRNA
// target: candidate windows are cut from the coding region, scored with
// empirical design rules, screened for off-targets locally and optionally
// against NCBI BLAST, and ranked into an orderable shortlist.
package sirna

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sirna/config"
)

var (
	// stderr is for logging to Stderr (without an annoying timestamp)
	stderr = log.New(os.Stderr, "", 0)
)

// ErrEmptyShortlist is returned when every candidate was filtered out and
// there is nothing left to report.
var ErrEmptyShortlist = errors.New("no suitable siRNA candidates found")

// Candidate is one siRNA duplex cut from the target's coding region.
type Candidate struct {
	// Rank is the 1-based position in the final shortlist, 0 until ranked.
	Rank int

	// Position is the 1-based start of the window on the CDS.
	Position int

	// Sense is the window itself, 5' to 3'.
	Sense string

	// Antisense is the guide strand, the reverse complement of Sense, 5' to 3'.
	Antisense string

	// GCPercent is the sense strand's GC percentage.
	GCPercent float64

	// Score is the design-rule total out of MaxScore.
	Score int

	// ScoreNotes are the per-rule awards behind Score.
	ScoreNotes []string

	// Local is the verdict of the self-redundancy screen.
	Local Verdict

	// OffTarget is the verdict of the remote screen.
	OffTarget Verdict

	// OffTargetNote explains the OffTarget verdict.
	OffTargetNote string
}

// Flags contains parsed cobra Flags like "accession", "gene", "out" that are used by the design command.
type Flags struct {
	// the accession of the transcript to design against
	accession string

	// the gene symbol, used to name outputs and to excuse the target's
	// own transcripts during the remote screen
	gene string

	// the gene's descriptive name for the report header
	geneName string

	// the name of the file to write the candidate CSV to
	csvOut string

	// the name of the file to write the text report to
	reportOut string

	// whether to run the remote BLAST screen
	blast bool
}

// inputParser contains methods for parsing flags from the input &cobra.Command.
type inputParser struct{}

// NewFlags makes a new flags object manually. for testing.
func NewFlags(accession, gene, geneName, csvOut, reportOut string, blast bool) (*Flags, *config.Config) {
	p := inputParser{}

	if gene == "" {
		gene = p.fallbackGene(accession)
	}
	if csvOut == "" {
		csvOut = p.guessCSVOutput(gene)
	}
	if reportOut == "" {
		reportOut = p.guessReportOutput(gene)
	}

	return &Flags{
		accession: accession,
		gene:      gene,
		geneName:  geneName,
		csvOut:    csvOut,
		reportOut: reportOut,
		blast:     blast,
	}, config.New()
}

// parseCmdFlags gathers the accession, gene and output paths from a cobra
// cmd object. returns Flags and a Config struct for the design handler.
func parseCmdFlags(cmd *cobra.Command, args []string) (*Flags, *config.Config) {
	var err error
	fs := &Flags{} // parsed flags
	p := inputParser{}
	c := config.New()

	if fs.accession, err = cmd.Flags().GetString("accession"); fs.accession == "" || err != nil {
		if len(args) < 1 {
			cmd.Help()
			stderr.Fatalln("\nno accession passed.")
		}
		fs.accession = args[0]
	}

	if fs.gene, err = cmd.Flags().GetString("gene"); fs.gene == "" || err != nil {
		fs.gene = p.fallbackGene(fs.accession)
	}
	fs.geneName, _ = cmd.Flags().GetString("gene-name")

	if fs.csvOut, err = cmd.Flags().GetString("out"); fs.csvOut == "" || err != nil {
		fs.csvOut = p.guessCSVOutput(fs.gene)
	}
	if fs.reportOut, err = cmd.Flags().GetString("report"); fs.reportOut == "" || err != nil {
		fs.reportOut = p.guessReportOutput(fs.gene)
	}
	fs.blast, _ = cmd.Flags().GetBool("blast")

	return fs, c
}

// fallbackGene derives an output prefix from the accession when no gene
// symbol was passed: the accession without its version suffix.
func (parser inputParser) fallbackGene(accession string) string {
	if i := strings.IndexByte(accession, '.'); i > 0 {
		return accession[:i]
	}
	return accession
}

// guessCSVOutput returns the default candidate CSV path for a gene.
func (parser inputParser) guessCSVOutput(gene string) string {
	return gene + "_siRNA_candidates.csv"
}

// guessReportOutput returns the default text report path for a gene.
func (parser inputParser) guessReportOutput(gene string) string {
	return gene + "_siRNA_report.txt"
}

// DesignCmd takes a cobra command (with its flags) and runs Design.
func DesignCmd(cmd *cobra.Command, args []string) {
	Design(parseCmdFlags(cmd, args))
}

// Design runs the pipeline end to end: fetch the transcript, cut and score
// windows, screen for off-targets and write the shortlist to disk. The
// shortlist is returned for callers that want it in-process.
func Design(flags *Flags, conf *config.Config) []*Candidate {
	start := time.Now()
	runID := uuid.New().String()

	if conf.Verbose {
		stderr.Printf("design run %s\n", runID)
	}

	shortlist, tr, err := design(context.Background(), flags, conf, NewEntrezClient(conf.Entrez))
	if err != nil {
		stderr.Fatalln(err)
	}

	if err := writeCSV(flags.csvOut, shortlist); err != nil {
		stderr.Fatalln(err)
	}
	if err := writeReport(flags.reportOut, flags, conf, tr, shortlist, runID); err != nil {
		stderr.Fatalln(err)
	}

	printSummary(os.Stdout, flags, shortlist, time.Since(start))
	return shortlist
}

// design fetches the transcript and runs the candidate pipeline against
// its coding region. The off-target checker is picked here: a live BLAST
// client when the blast flag is set, otherwise candidates are marked
// SKIPPED and only the local screen applies.
func design(ctx context.Context, flags *Flags, conf *config.Config, provider SequenceProvider) ([]*Candidate, *Transcript, error) {
	if conf.Verbose {
		stderr.Printf("fetching %s\n", flags.accession)
	}

	tr, err := provider.Fetch(ctx, flags.accession)
	if err != nil {
		return nil, nil, err
	}

	if conf.Verbose {
		stderr.Printf("  %s: %s\n", tr.Accession, tr.Definition)
		stderr.Printf("  organism: %s\n", tr.Organism)
		stderr.Printf("  mRNA length: %d bp\n", tr.Length)
		stderr.Printf("  CDS region: %d-%d (%d bp)\n", tr.CDSStart, tr.CDSEnd, len(tr.CDS))
	}

	if len(tr.CDS) < conf.Design.Window+1 {
		return nil, nil, fmt.Errorf(
			"coding region is %d bp, too short for %d base windows",
			len(tr.CDS), conf.Design.Window)
	}

	var checker OffTargetChecker = SkippedChecker{}
	if flags.blast {
		checker = NewBlastClient(conf.Blast, flags.gene, tr.Organism)
		stderr.Println("BLAST off-target analysis enabled (this will be slow)")
	}

	shortlist, err := pipeline(ctx, tr.CDS, conf, checker)
	if err != nil {
		return nil, nil, err
	}

	return shortlist, tr, nil
}

// pipeline turns a coding sequence into the final ranked shortlist.
func pipeline(ctx context.Context, cds string, conf *config.Config, checker OffTargetChecker) ([]*Candidate, error) {
	cands := Generate(cds, conf.Design)
	sortCandidates(cands, conf.Design.GCTarget)
	if conf.Verbose && len(cands) > 0 {
		stderr.Printf("generated %d candidates, top score %d/%d\n", len(cands), cands[0].Score, MaxScore)
	}

	kept := applyFilters(cands, conf.Design)
	if conf.Verbose {
		stderr.Printf("screening %d candidates\n", len(kept))
	}

	if err := screenCandidates(ctx, checker, kept, conf.Blast.Workers); err != nil {
		return nil, err
	}

	shortlist := rank(kept, conf.Design)
	if len(shortlist) == 0 {
		return nil, ErrEmptyShortlist
	}
	return shortlist, nil
}

// Generate cuts every window of conf.Window bases from cds, scores each
// against the design rules and screens it against the transcript itself.
// Windows containing ambiguous bases are skipped. Candidates come back
// in transcript order, sorting is the ranking stage's job.
func Generate(cds string, conf config.DesignConfig) []*Candidate {
	var cands []*Candidate

	for i := 0; i+conf.Window <= len(cds); i++ {
		sense := cds[i : i+conf.Window]
		if !validWindow(sense) {
			continue
		}

		score, notes := Score(sense)
		cands = append(cands, &Candidate{
			Position:   i + 1,
			Sense:      sense,
			Antisense:  reverseComplement(sense),
			GCPercent:  gcPercent(sense),
			Score:      score,
			ScoreNotes: notes,
			Local:      localRedundancy(cds, sense, conf.LocalIdentity()),
		})
	}

	return cands
}

// sortCandidates orders candidates best first: higher score, then GC
// closer to gcTarget. The sort is stable so tied candidates keep their
// transcript order.
func sortCandidates(cands []*Candidate, gcTarget float64) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return math.Abs(cands[i].GCPercent-gcTarget) < math.Abs(cands[j].GCPercent-gcTarget)
	})
}

// applyFilters drops candidates that failed the local screen or fall
// outside the acceptable GC band, then caps the survivors at
// conf.TopScored to bound the cost of the remote screen.
func applyFilters(cands []*Candidate, conf config.DesignConfig) []*Candidate {
	var kept []*Candidate
	for _, c := range cands {
		if c.Local == VerdictFail {
			continue
		}
		if c.GCPercent < conf.GCMin || c.GCPercent > conf.GCMax {
			continue
		}
		kept = append(kept, c)
	}

	if len(kept) > conf.TopScored {
		kept = kept[:conf.TopScored]
	}
	return kept
}

// rank drops candidates the remote screen rejected, assigns 1-based ranks
// to the rest and truncates to the shortlist size. With Strict set an
// UNKNOWN verdict disqualifies a candidate instead of being tolerated.
func rank(cands []*Candidate, conf config.DesignConfig) []*Candidate {
	var kept []*Candidate
	for _, c := range cands {
		if c.OffTarget == VerdictFail {
			continue
		}
		if conf.Strict && c.OffTarget == VerdictUnknown {
			continue
		}

		c.Rank = len(kept) + 1
		kept = append(kept, c)
	}

	if len(kept) > conf.Shortlist {
		kept = kept[:conf.Shortlist]
	}
	return kept
}
