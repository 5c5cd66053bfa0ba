package sirna

import (
	"fmt"
	"strings"
	"unicode"
)

// Transcript is the subset of a nucleotide database record that the
// designer consumes: identity, provenance and the extracted coding region.
type Transcript struct {
	// the versioned accession the record was fetched under
	Accession string

	// the record's DEFINITION line
	Definition string

	// the source organism
	Organism string

	// length of the full mRNA in bases
	Length int

	// 1-based, inclusive start of the coding region on the mRNA
	CDSStart int

	// 1-based, inclusive end of the coding region on the mRNA
	CDSEnd int

	// the coding region sequence, uppercased
	CDS string
}

var complement [256]byte

func init() {
	complement['A'] = 'T'
	complement['T'] = 'A'
	complement['G'] = 'C'
	complement['C'] = 'G'
}

// reverseComplement returns the antisense strand of an ACGT sequence,
// written 5' to 3'. Bases outside ACGT come back as N.
func reverseComplement(seq string) string {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := complement[seq[n-1-i]]
		if c == 0 {
			c = 'N'
		}
		out[i] = c
	}
	return string(out)
}

// gcPercent returns the percentage of G/C bases in seq.
func gcPercent(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}

	gc := 0
	for i := 0; i < len(seq); i++ {
		if seq[i] == 'G' || seq[i] == 'C' {
			gc++
		}
	}
	return float64(gc) * 100.0 / float64(len(seq))
}

// validWindow reports whether every base of seq is an unambiguous A/C/G/T.
func validWindow(seq string) bool {
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

// normalizeSequence uppercases a user supplied sequence and drops any
// whitespace so copy-pasted windows validate cleanly.
func normalizeSequence(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// checkWindow validates a normalized window against the design width
// and alphabet, returning a descriptive error for the CLI.
func checkWindow(seq string, window int) error {
	if len(seq) != window {
		return fmt.Errorf("window is %d bases, expected %d", len(seq), window)
	}
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return fmt.Errorf("invalid base %q at position %d; only A, C, G and T are allowed", seq[i], i+1)
		}
	}
	return nil
}
