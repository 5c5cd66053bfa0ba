package sirna

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"sirna/config"
)

// A SequenceProvider resolves an accession to a transcript record.
type SequenceProvider interface {
	Fetch(ctx context.Context, accession string) (*Transcript, error)
}

// A FetchError describes a failed transcript lookup.
type FetchError struct {
	// Accession is the record that was requested.
	Accession string

	// Message is a short description of what failed.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Accession, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.Accession, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// EntrezClient fetches nucleotide records from the NCBI E-utilities efetch
// endpoint in GenBank flat-file format.
type EntrezClient struct {
	conf   config.EntrezConfig
	client *http.Client
}

var _ SequenceProvider = (*EntrezClient)(nil)

// NewEntrezClient returns a SequenceProvider backed by NCBI efetch.
func NewEntrezClient(conf config.EntrezConfig) *EntrezClient {
	return &EntrezClient{
		conf:   conf,
		client: &http.Client{Timeout: conf.Timeout},
	}
}

// Fetch downloads the GenBank record for accession and extracts the
// transcript metadata and coding region from it.
func (c *EntrezClient) Fetch(ctx context.Context, accession string) (*Transcript, error) {
	q := url.Values{}
	q.Set("db", "nucleotide")
	q.Set("id", accession)
	q.Set("rettype", "gb")
	q.Set("retmode", "text")
	if c.conf.Tool != "" {
		q.Set("tool", c.conf.Tool)
	}
	if c.conf.Email != "" {
		q.Set("email", c.conf.Email)
	}
	if c.conf.APIKey != "" {
		q.Set("api_key", c.conf.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.conf.URL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Accession: accession, Message: "build efetch request", Cause: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Accession: accession, Message: "efetch request", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Accession: accession, Message: "efetch returned " + resp.Status}
	}

	t, err := parseGenBank(resp.Body)
	if err != nil {
		return nil, &FetchError{Accession: accession, Message: "parse GenBank record", Cause: err}
	}
	if t.Accession == "" {
		t.Accession = accession
	}

	return t, nil
}

// SequenceCmd takes a cobra command with an accession argument, fetches
// the record and writes its coding region to stdout as FASTA.
func SequenceCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		cmd.Help()
		stderr.Fatalln("\nno accession passed.")
	}
	conf := config.New()

	tr, err := NewEntrezClient(conf.Entrez).Fetch(context.Background(), args[0])
	if err != nil {
		stderr.Fatalln(err)
	}

	stderr.Printf("%s: %s\n", tr.Accession, tr.Definition)
	stderr.Printf("organism: %s, mRNA: %d bp, CDS: %d-%d (%d bp)\n",
		tr.Organism, tr.Length, tr.CDSStart, tr.CDSEnd, len(tr.CDS))

	fmt.Printf(">%s_CDS %d..%d\n", tr.Accession, tr.CDSStart, tr.CDSEnd)
	for i := 0; i < len(tr.CDS); i += 60 {
		end := i + 60
		if end > len(tr.CDS) {
			end = len(tr.CDS)
		}
		fmt.Println(tr.CDS[i:end])
	}
}

// parseGenBank reads a GenBank flat-file record and extracts the fields the
// designer needs: LOCUS length, DEFINITION, ORGANISM, the first CDS feature
// and the ORIGIN sequence.
func parseGenBank(r io.Reader) (*Transcript, error) {
	t := &Transcript{}
	var seq strings.Builder
	inDefinition := false
	inOrigin := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if inOrigin {
			if strings.HasPrefix(line, "//") {
				inOrigin = false
				continue
			}
			for _, c := range line {
				if unicode.IsLetter(c) {
					seq.WriteRune(unicode.ToUpper(c))
				}
			}
			continue
		}

		// DEFINITION folds onto indented continuation lines.
		if inDefinition {
			if line != "" && line[0] == ' ' {
				t.Definition += " " + strings.TrimSpace(line)
				continue
			}
			inDefinition = false
		}

		switch {
		case strings.HasPrefix(line, "LOCUS"):
			fields := strings.Fields(line)
			for i, f := range fields {
				if f == "bp" && i > 0 {
					if n, err := strconv.Atoi(fields[i-1]); err == nil {
						t.Length = n
					}
				}
			}
		case strings.HasPrefix(line, "DEFINITION"):
			t.Definition = strings.TrimSpace(strings.TrimPrefix(line, "DEFINITION"))
			inDefinition = true
		case strings.HasPrefix(line, "VERSION"):
			if fields := strings.Fields(line); len(fields) > 1 {
				t.Accession = fields[1]
			}
		case strings.HasPrefix(line, "ORIGIN"):
			inOrigin = true
		default:
			if t.Organism == "" && strings.Contains(line, "ORGANISM") {
				t.Organism = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "ORGANISM"))
				continue
			}

			fields := strings.Fields(line)
			if len(fields) == 2 && fields[0] == "CDS" && t.CDSStart == 0 {
				start, end, err := parseCDSLocation(fields[1])
				if err != nil {
					return nil, err
				}
				t.CDSStart, t.CDSEnd = start, end
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if t.CDSStart == 0 {
		return nil, fmt.Errorf("no CDS feature in record")
	}

	full := seq.String()
	if full == "" {
		return nil, fmt.Errorf("no ORIGIN sequence in record")
	}
	if t.CDSEnd > len(full) {
		return nil, fmt.Errorf("CDS bounds %d..%d exceed sequence length %d", t.CDSStart, t.CDSEnd, len(full))
	}
	if t.Length == 0 {
		t.Length = len(full)
	}
	t.CDS = full[t.CDSStart-1 : t.CDSEnd]

	return t, nil
}

// parseCDSLocation parses a simple GenBank span like 113..1462, tolerating
// the <113 and >1462 partial-bound markers. Compound locations (join,
// complement) are rejected: a spliced or reverse-strand CDS has no single
// contiguous window to design against.
func parseCDSLocation(loc string) (start, end int, err error) {
	if strings.ContainsAny(loc, "(),") {
		return 0, 0, fmt.Errorf("unsupported CDS location %q", loc)
	}

	clean := strings.NewReplacer("<", "", ">", "").Replace(loc)
	bounds := strings.Split(clean, "..")
	if len(bounds) != 2 {
		return 0, 0, fmt.Errorf("malformed CDS location %q", loc)
	}

	if start, err = strconv.Atoi(bounds[0]); err != nil {
		return 0, 0, fmt.Errorf("malformed CDS location %q", loc)
	}
	if end, err = strconv.Atoi(bounds[1]); err != nil {
		return 0, 0, fmt.Errorf("malformed CDS location %q", loc)
	}
	if start < 1 || end < start {
		return 0, 0, fmt.Errorf("invalid CDS bounds %d..%d", start, end)
	}

	return start, end, nil
}
