package sirna

import (
	"reflect"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		seq       string
		want      int
		wantNotes []string
	}{
		{
			"every rule awarded",
			"ATAATTAGCGCGTCATTAG",
			10,
			[]string{
				"GC 30-50%: +2",
				"Pos1 A/U: +1",
				"Pos19 G/C: +1",
				"3' A/U rich: +2",
				"No poly-runs: +1",
				"5' A/U rich: +2",
				"No 3' GC stretch: +1",
			},
		},
		{
			"GC saturated with poly-runs",
			"GGGGCCCCGGGGCCCCGGG",
			1,
			[]string{
				"Pos19 G/C: +1",
			},
		},
		{
			"AT alternation misses GC rules",
			"ATATATATATATATATATA",
			7,
			[]string{
				"Pos1 A/U: +1",
				"3' A/U rich: +2",
				"No poly-runs: +1",
				"5' A/U rich: +2",
				"No 3' GC stretch: +1",
			},
		},
		{
			"near optimal GC band",
			"ATATATATATATATGCGCG",
			6,
			[]string{
				"GC near optimal: +1",
				"Pos1 A/U: +1",
				"Pos19 G/C: +1",
				"No poly-runs: +1",
				"5' A/U rich: +2",
			},
		},
		{
			"moderate asymmetry awards",
			"ATACGTGTACGTTAATTGC",
			8,
			[]string{
				"GC 30-50%: +2",
				"Pos1 A/U: +1",
				"Pos19 G/C: +1",
				"3' A/U moderate: +1",
				"No poly-runs: +1",
				"5' A/U moderate: +1",
				"No 3' GC stretch: +1",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, notes := Score(tt.seq)
			if got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(notes, tt.wantNotes) {
				t.Errorf("Score() notes = %v, want %v", notes, tt.wantNotes)
			}
		})
	}
}

func TestScore_neverExceedsMax(t *testing.T) {
	seqs := []string{
		"ATAATTAGCGCGTCATTAG",
		"TTAATTAATTAATTAATTA",
		"ATTATTATTAGCGCATTAT",
	}
	for _, seq := range seqs {
		if got, _ := Score(seq); got > MaxScore {
			t.Errorf("Score(%q) = %v, above max %v", seq, got, MaxScore)
		}
	}
}

// band edges of the composition rule, on twenty base windows where the
// exact cutoff percentages are reachable
func Test_gcContentRuleBands(t *testing.T) {
	var gcRule Rule
	for _, r := range Rules() {
		if r.Name == "GC content" {
			gcRule = r
		}
	}
	if gcRule.Apply == nil {
		t.Fatal("no GC content rule in the rule table")
	}

	tests := []struct {
		name string
		seq  string
		want int
	}{
		{
			"bottom of optimal band",
			"GCGCGCATATATATATATAT", // 30%
			2,
		},
		{
			"top of optimal band",
			"GCGCGCGCGCATATATATAT", // 50%
			2,
		},
		{
			"bottom of near band",
			"GCGCGATATATATATATATA", // 25%
			1,
		},
		{
			"top of near band",
			"GCGCGCGCGCGATATATATA", // 55%
			1,
		},
		{
			"below both bands",
			"GCGCATATATATATATATAT", // 20%
			0,
		},
		{
			"above both bands",
			"GCGCGCGCGCGCATATATAT", // 60%
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := gcRule.Apply(tt.seq); got != tt.want {
				t.Errorf("Apply(%q) = %v, want %v", tt.seq, got, tt.want)
			}
		})
	}
}

func Test_countAT(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want int
	}{
		{
			"mixed",
			"ATGCATG",
			4,
		},
		{
			"none",
			"GGCC",
			0,
		},
		{
			"empty",
			"",
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countAT(tt.seq); got != tt.want {
				t.Errorf("countAT() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_hasRun(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		n    int
		want bool
	}{
		{
			"run of four",
			"ATGGGGC",
			4,
			true,
		},
		{
			"run of three only",
			"ATGGGCA",
			4,
			false,
		},
		{
			"run at the end",
			"ATGCTTTT",
			4,
			true,
		},
		{
			"alternating",
			"ATATATAT",
			4,
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasRun(tt.seq, tt.n); got != tt.want {
				t.Errorf("hasRun() = %v, want %v", got, tt.want)
			}
		})
	}
}
