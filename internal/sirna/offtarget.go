package sirna

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Verdict is the outcome of an off-target check.
type Verdict string

const (
	// VerdictPass means no concerning off-target signal was found.
	VerdictPass Verdict = "PASS"

	// VerdictFail means the candidate hits something it should not.
	VerdictFail Verdict = "FAIL"

	// VerdictUnknown means the check ran but could not produce an answer.
	VerdictUnknown Verdict = "UNKNOWN"

	// VerdictSkipped means the check was not requested.
	VerdictSkipped Verdict = "SKIPPED"
)

// An OffTargetChecker screens a sense strand against sequences beyond the
// candidate's own transcript.
type OffTargetChecker interface {
	// Check returns a verdict with a short note explaining it. An error
	// means the screen could not run at all; callers decide whether that
	// downgrades or disqualifies the candidate.
	Check(ctx context.Context, sense string) (Verdict, string, error)
}

// localRedundancy screens a sense window against the transcript it was cut
// from. Every same-width window matching at minIdentity or more positions
// counts as an occurrence, the window's own position included. More than
// one occurrence fails the candidate: a duplicated seed silences more of
// the transcript than the position it was designed for.
func localRedundancy(cds, sense string, minIdentity int) Verdict {
	maxMismatch := len(sense) - minIdentity
	occurrences := 0

window:
	for i := 0; i+len(sense) <= len(cds); i++ {
		mismatches := 0
		for j := 0; j < len(sense); j++ {
			if cds[i+j] != sense[j] {
				mismatches++
				if mismatches > maxMismatch {
					continue window
				}
			}
		}

		occurrences++
		if occurrences > 1 {
			return VerdictFail
		}
	}

	return VerdictPass
}

// screenCandidates runs checker over every candidate concurrently, at most
// workers checks in flight, and writes each verdict back onto its candidate
// so ordering is unaffected. Checker errors downgrade that candidate to
// UNKNOWN rather than aborting the run; only context cancellation stops
// the screen early.
func screenCandidates(ctx context.Context, checker OffTargetChecker, cands []*Candidate, workers int) error {
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, c := range cands {
		c := c // per-iteration copy: the goroutine must see its own candidate under go <1.22 loop semantics
		g.Go(func() error {
			verdict, note, err := checker.Check(ctx, c.Sense)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				verdict, note = VerdictUnknown, fmt.Sprintf("BLAST error: %v", err)
			}

			c.OffTarget = verdict
			c.OffTargetNote = note
			return nil
		})
	}

	return g.Wait()
}
