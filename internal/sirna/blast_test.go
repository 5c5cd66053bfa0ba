package sirna

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sirna/config"
)

const testBlastXML = `<?xml version="1.0"?>
<BlastOutput>
  <BlastOutput_program>blastn</BlastOutput_program>
  <BlastOutput_iterations>
    <Iteration>
      <Iteration_iter-num>1</Iteration_iter-num>
      <Iteration_hits>
        <Hit>
          <Hit_num>1</Hit_num>
          <Hit_id>ref|NM_003466.4|</Hit_id>
          <Hit_def>Homo sapiens paired box 8 (PAX8), transcript variant 1, mRNA</Hit_def>
          <Hit_hsps>
            <Hsp>
              <Hsp_identity>19</Hsp_identity>
              <Hsp_align-len>19</Hsp_align-len>
            </Hsp>
          </Hit_hsps>
        </Hit>
        <Hit>
          <Hit_num>2</Hit_num>
          <Hit_id>ref|NM_016734.3|</Hit_id>
          <Hit_def>Homo sapiens paired box 5 (PAX5), mRNA</Hit_def>
          <Hit_hsps>
            <Hsp>
              <Hsp_identity>16</Hsp_identity>
              <Hsp_align-len>17</Hsp_align-len>
            </Hsp>
          </Hit_hsps>
        </Hit>
      </Iteration_hits>
    </Iteration>
  </BlastOutput_iterations>
</BlastOutput>`

const testBlastWeakXML = `<?xml version="1.0"?>
<BlastOutput>
  <BlastOutput_iterations>
    <Iteration>
      <Iteration_hits>
        <Hit>
          <Hit_num>1</Hit_num>
          <Hit_id>ref|NM_016734.3|</Hit_id>
          <Hit_def>Homo sapiens paired box 5 (PAX5), mRNA</Hit_def>
          <Hit_hsps>
            <Hsp>
              <Hsp_identity>15</Hsp_identity>
              <Hsp_align-len>19</Hsp_align-len>
            </Hsp>
            <Hsp>
              <Hsp_identity>16</Hsp_identity>
              <Hsp_align-len>16</Hsp_align-len>
            </Hsp>
          </Hit_hsps>
        </Hit>
      </Iteration_hits>
    </Iteration>
  </BlastOutput_iterations>
</BlastOutput>`

// blastServerState records what a fake BLAST endpoint has seen. Guarded
// because the screen queries it from several goroutines.
type blastServerState struct {
	mu    sync.Mutex
	polls int
	put   url.Values
}

func (s *blastServerState) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func (s *blastServerState) putForm() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put
}

// newBlastTestServer fakes the submit, poll, fetch cycle: the first poll
// reports WAITING, later polls report status, and the XML fetch serves
// resultXML.
func newBlastTestServer(t *testing.T, status, resultXML string) (*httptest.Server, *blastServerState) {
	state := &blastServerState{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		switch r.FormValue("CMD") {
		case "Put":
			state.mu.Lock()
			state.put = r.Form
			state.mu.Unlock()
			fmt.Fprint(w, "<!--QBlastInfoBegin\n    RID = TESTRID123\n    RTOE = 15\nQBlastInfoEnd\n-->")
		case "Get":
			if r.FormValue("FORMAT_OBJECT") == "SearchInfo" {
				state.mu.Lock()
				polls := state.polls + 1
				state.polls = polls
				state.mu.Unlock()

				if polls == 1 {
					fmt.Fprint(w, "Status=WAITING")
					return
				}
				fmt.Fprint(w, "Status="+status)
				return
			}
			require.Equal(t, "TESTRID123", r.FormValue("RID"))
			fmt.Fprint(w, resultXML)
		default:
			t.Errorf("unexpected CMD %q", r.FormValue("CMD"))
		}
	}))
	return srv, state
}

func testBlastConfig(endpoint string) config.BlastConfig {
	return config.BlastConfig{
		URL:          endpoint,
		Program:      "blastn",
		Database:     "refseq_rna",
		WordSize:     7,
		Expect:       1000,
		HitListSize:  50,
		MinIdentity:  16,
		MinAlignLen:  17,
		PollInterval: 10 * time.Millisecond,
		Timeout:      5 * time.Second,
		Workers:      2,
	}
}

func TestBlastClient_Check_failsOnOffTarget(t *testing.T) {
	srv, state := newBlastTestServer(t, "READY", testBlastXML)
	defer srv.Close()

	client := NewBlastClient(testBlastConfig(srv.URL), "PAX8", "Homo sapiens")

	verdict, note, err := client.Check(context.Background(), "ATGATAATTAGCGCGTCAT")
	require.NoError(t, err)

	// the PAX8 hit is the target itself; only the PAX5 alignment counts
	assert.Equal(t, VerdictFail, verdict)
	assert.Equal(t, "1 off-targets found", note)
	assert.GreaterOrEqual(t, state.pollCount(), 2)

	put := state.putForm()
	assert.Equal(t, "blastn", put.Get("PROGRAM"))
	assert.Equal(t, "refseq_rna", put.Get("DATABASE"))
	assert.Equal(t, "ATGATAATTAGCGCGTCAT", put.Get("QUERY"))
	assert.Equal(t, "7", put.Get("WORD_SIZE"))
	assert.Equal(t, "1000", put.Get("EXPECT"))
	assert.Equal(t, "50", put.Get("HITLIST_SIZE"))
	assert.Equal(t, "Homo sapiens[organism]", put.Get("ENTREZ_QUERY"))
}

func TestBlastClient_Check_passesOnWeakHits(t *testing.T) {
	srv, _ := newBlastTestServer(t, "READY", testBlastWeakXML)
	defer srv.Close()

	client := NewBlastClient(testBlastConfig(srv.URL), "PAX8", "Homo sapiens")

	verdict, note, err := client.Check(context.Background(), "ATGATAATTAGCGCGTCAT")
	require.NoError(t, err)
	assert.Equal(t, VerdictPass, verdict)
	assert.Equal(t, "No significant off-targets", note)
}

func TestBlastClient_Check_searchFailed(t *testing.T) {
	srv, _ := newBlastTestServer(t, "FAILED", testBlastXML)
	defer srv.Close()

	client := NewBlastClient(testBlastConfig(srv.URL), "PAX8", "Homo sapiens")

	_, _, err := client.Check(context.Background(), "ATGATAATTAGCGCGTCAT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAILED")
}

func TestSkippedChecker_Check(t *testing.T) {
	verdict, note, err := SkippedChecker{}.Check(context.Background(), "ATGATAATTAGCGCGTCAT")
	require.NoError(t, err)
	assert.Equal(t, VerdictSkipped, verdict)
	assert.Equal(t, "Skipped (use --blast for full analysis)", note)
}
