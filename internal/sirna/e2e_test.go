package sirna

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sirna/config"
)

// newEfetchTestServer serves the canned GenBank record for any accession.
func newEfetchTestServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testGenBankRecord))
	}))
}

// The full pipeline against fake NCBI endpoints: efetch serves the
// transcript and BLAST clears every candidate, all through the real
// clients.
func TestDesign_endToEnd(t *testing.T) {
	efetch := newEfetchTestServer()
	defer efetch.Close()

	blastSrv, state := newBlastTestServer(t, "READY", testBlastWeakXML)
	defer blastSrv.Close()

	conf := testConfig()
	conf.Entrez = config.EntrezConfig{URL: efetch.URL, Tool: "sirna", Timeout: 5 * time.Second}
	conf.Blast = testBlastConfig(blastSrv.URL)

	flags := &Flags{accession: "NM_TEST100.2", gene: "PAX8", blast: true}

	got, tr, err := design(context.Background(), flags, conf, NewEntrezClient(conf.Entrez))
	require.NoError(t, err)

	assert.Equal(t, "NM_TEST100.2", tr.Accession)
	assert.Equal(t, "Homo sapiens", tr.Organism)

	require.Len(t, got, 10)
	assert.Equal(t, []int{4, 5, 2, 1, 3, 6, 16, 15, 18, 32}, positions(got))
	for _, c := range got {
		assert.Equal(t, VerdictPass, c.OffTarget)
		assert.Equal(t, "No significant off-targets", c.OffTargetNote)
	}

	// every one of the ten shortlisted candidates was screened
	assert.GreaterOrEqual(t, state.pollCount(), 10)
}

// A BLAST outage must not shrink the shortlist: every candidate comes back
// UNKNOWN and membership matches a skipped run.
func TestDesign_endToEnd_blastOutage(t *testing.T) {
	efetch := newEfetchTestServer()
	defer efetch.Close()

	blastSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer blastSrv.Close()

	conf := testConfig()
	conf.Entrez = config.EntrezConfig{URL: efetch.URL, Timeout: 5 * time.Second}
	conf.Blast = testBlastConfig(blastSrv.URL)

	provider := NewEntrezClient(conf.Entrez)

	withBlast := &Flags{accession: "NM_TEST100.2", gene: "PAX8", blast: true}
	got, _, err := design(context.Background(), withBlast, conf, provider)
	require.NoError(t, err)

	withoutBlast := &Flags{accession: "NM_TEST100.2", gene: "PAX8"}
	skipped, _, err := design(context.Background(), withoutBlast, conf, provider)
	require.NoError(t, err)

	assert.Equal(t, positions(skipped), positions(got))
	for _, c := range got {
		assert.Equal(t, VerdictUnknown, c.OffTarget)
		assert.Contains(t, c.OffTargetNote, "BLAST error")
	}
}
