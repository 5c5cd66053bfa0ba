package sirna

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"sirna/config"
)

// BlastClient screens sense strands against the NCBI BLAST URL API. Each
// check is a full submit, poll, fetch cycle against the public queue, so
// checks take tens of seconds and should be limited to a short candidate
// list.
type BlastClient struct {
	conf config.BlastConfig

	// hits naming this gene are the target itself, not off-targets
	gene string

	// limits the search to one organism's transcripts
	organism string

	client *http.Client
}

var _ OffTargetChecker = (*BlastClient)(nil)

// NewBlastClient returns an OffTargetChecker that queries NCBI BLAST.
// Hits whose title contains gene are ignored and, when organism is
// non-empty, the search is restricted to that organism.
func NewBlastClient(conf config.BlastConfig, gene, organism string) *BlastClient {
	return &BlastClient{
		conf:     conf,
		gene:     gene,
		organism: organism,
		client:   &http.Client{},
	}
}

var (
	ridPattern    = regexp.MustCompile(`RID = (\S+)`)
	statusPattern = regexp.MustCompile(`Status=(\S+)`)
)

// Check submits sense to BLAST, waits for the search to finish and counts
// qualifying alignments to transcripts other than the target gene.
func (c *BlastClient) Check(ctx context.Context, sense string) (Verdict, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.conf.Timeout)
	defer cancel()

	rid, err := c.submit(ctx, sense)
	if err != nil {
		return VerdictUnknown, "", fmt.Errorf("blast submit: %w", err)
	}

	if err := c.await(ctx, rid); err != nil {
		return VerdictUnknown, "", fmt.Errorf("blast %s: %w", rid, err)
	}

	hits, err := c.results(ctx, rid)
	if err != nil {
		return VerdictUnknown, "", fmt.Errorf("blast %s results: %w", rid, err)
	}

	offTargets := 0
	for _, hit := range hits {
		if c.gene != "" && strings.Contains(strings.ToUpper(hit.ID+" "+hit.Def), strings.ToUpper(c.gene)) {
			continue
		}
		for _, hsp := range hit.HSPs {
			if hsp.Identity >= c.conf.MinIdentity && hsp.AlignLen >= c.conf.MinAlignLen {
				offTargets++
			}
		}
	}

	if offTargets > 0 {
		return VerdictFail, fmt.Sprintf("%d off-targets found", offTargets), nil
	}
	return VerdictPass, "No significant off-targets", nil
}

// submit queues the search and returns its request ID.
func (c *BlastClient) submit(ctx context.Context, sense string) (string, error) {
	form := url.Values{}
	form.Set("CMD", "Put")
	form.Set("PROGRAM", c.conf.Program)
	form.Set("DATABASE", c.conf.Database)
	form.Set("QUERY", sense)
	form.Set("WORD_SIZE", strconv.Itoa(c.conf.WordSize))
	form.Set("EXPECT", strconv.FormatFloat(c.conf.Expect, 'f', -1, 64))
	form.Set("HITLIST_SIZE", strconv.Itoa(c.conf.HitListSize))
	if c.organism != "" {
		form.Set("ENTREZ_QUERY", c.organism+"[organism]")
	}

	body, err := c.do(ctx, http.MethodPost, form)
	if err != nil {
		return "", err
	}

	m := ridPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("no RID in submit response")
	}
	return string(m[1]), nil
}

// await polls the queued search until it reports READY.
func (c *BlastClient) await(ctx context.Context, rid string) error {
	params := url.Values{}
	params.Set("CMD", "Get")
	params.Set("RID", rid)
	params.Set("FORMAT_OBJECT", "SearchInfo")

	for {
		body, err := c.do(ctx, http.MethodGet, params)
		if err != nil {
			return err
		}

		status := ""
		if m := statusPattern.FindSubmatch(body); m != nil {
			status = string(m[1])
		}
		switch status {
		case "READY":
			return nil
		case "WAITING":
		default:
			// FAILED, UNKNOWN (expired RID) or an unparseable page
			return fmt.Errorf("search status %q", status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.conf.PollInterval):
		}
	}
}

// results fetches the finished search as XML and returns its hits.
func (c *BlastClient) results(ctx context.Context, rid string) ([]blastHit, error) {
	params := url.Values{}
	params.Set("CMD", "Get")
	params.Set("RID", rid)
	params.Set("FORMAT_TYPE", "XML")

	body, err := c.do(ctx, http.MethodGet, params)
	if err != nil {
		return nil, err
	}

	var out blastOutput
	if err := xml.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode BLAST XML: %w", err)
	}
	return out.Hits, nil
}

// do issues one request against the CGI endpoint and returns the body.
func (c *BlastClient) do(ctx context.Context, method string, params url.Values) ([]byte, error) {
	var (
		req *http.Request
		err error
	)
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, c.conf.URL, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.conf.URL+"?"+params.Encode(), nil)
	}
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blast endpoint returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// blastOutput is the slice of the NCBI_BlastOutput XML schema the screen
// reads: hits with their identities and alignment lengths.
type blastOutput struct {
	Hits []blastHit `xml:"BlastOutput_iterations>Iteration>Iteration_hits>Hit"`
}

type blastHit struct {
	ID   string     `xml:"Hit_id"`
	Def  string     `xml:"Hit_def"`
	HSPs []blastHSP `xml:"Hit_hsps>Hsp"`
}

type blastHSP struct {
	Identity int `xml:"Hsp_identity"`
	AlignLen int `xml:"Hsp_align-len"`
}

// SkippedChecker stands in for the remote screen when BLAST was not
// requested, marking every candidate as unscreened.
type SkippedChecker struct{}

var _ OffTargetChecker = SkippedChecker{}

// Check marks the candidate SKIPPED without any remote call.
func (SkippedChecker) Check(context.Context, string) (Verdict, string, error) {
	return VerdictSkipped, "Skipped (use --blast for full analysis)", nil
}
