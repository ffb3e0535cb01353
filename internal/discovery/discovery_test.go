package discovery_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/discovery"
	"github.com/williampepple1/dspace-site-finder/internal/scraper"
	"github.com/williampepple1/dspace-site-finder/pkg/models"
)

func httpLoader() scraper.PageLoader {
	return scraper.NewHTTPLoader(&config.FetcherConfig{Timeout: 5 * time.Second}, nil, nil)
}

type staticSource struct {
	name       string
	candidates []models.Candidate
	err        error
	called     bool
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Discover(context.Context) ([]models.Candidate, error) {
	s.called = true
	return s.candidates, s.err
}

func TestRun_FiltersAndDedupes(t *testing.T) {
	t.Parallel()

	first := &staticSource{name: "a", candidates: []models.Candidate{
		{Source: "A", URL: "http://www.Repo.org/xmlui"},
		{Source: "A", URL: "ftp://repo.org/"},
		{Source: "A", URL: "not a url"},
	}}
	failing := &staticSource{name: "b", err: errors.New("boom")}
	disabled := &staticSource{name: "c", candidates: []models.Candidate{{Source: "C", URL: "http://c.org/"}}}
	last := &staticSource{name: "d", candidates: []models.Candidate{
		{Source: "D", URL: "https://repo.org/xmlui/"},
		{Source: "D", URL: "http://other.org/"},
	}}

	cfg := config.DiscoveryConfig{Sources: map[string]bool{"c": false}}
	got, err := discovery.Run(context.Background(), []discovery.Source{first, failing, disabled, last}, cfg, nil)
	require.NoError(t, err)

	assert.False(t, disabled.called)
	assert.True(t, failing.called)
	assert.Equal(t, []models.Candidate{
		{Source: "A", URL: "http://www.Repo.org/xmlui"},
		{Source: "D", URL: "http://other.org/"},
	}, got)
}

func TestOpenDOAR_Discover(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dspace", r.URL.Query().Get("kwd"))
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, `<?xml version="1.0"?>
<OpenDOAR><repositories>
  <repository><rName>One</rName><rUrl>http://one.example.org/</rUrl></repository>
  <repository><rName>Two</rName><rUrl> http://two.example.org/jspui </rUrl></repository>
</repositories></OpenDOAR>`)
	}))
	defer srv.Close()

	got, err := discovery.NewOpenDOAR(httpLoader(), srv.URL+"/api.php", nil).Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Candidate{
		{Source: "OpenDOAR.org", URL: "http://one.example.org/"},
		{Source: "OpenDOAR.org", URL: "http://two.example.org/jspui"},
	}, got)
}

const roarPage = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <ListRecords>
    <record><metadata>
      <oai_dc:dc xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/" xmlns:dc="http://purl.org/dc/elements/1.1/">
        <dc:title>Repo</dc:title>
        <dc:identifier>%s</dc:identifier>
      </oai_dc:dc>
    </metadata></record>
    %s
  </ListRecords>
</OAI-PMH>`

func TestROAR_FollowsResumptionTokens(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		w.Header().Set("Content-Type", "text/xml")

		q := r.URL.Query()
		switch {
		case q.Get("set") == "s1":
			fmt.Fprintf(w, roarPage, "http://a.org/", `<resumptionToken cursor="0">tok 1</resumptionToken>`)
		case q.Get("resumptionToken") == "tok 1":
			fmt.Fprintf(w, roarPage, "http://b.org/", `<resumptionToken cursor="1"/>`)
		case q.Get("set") == "s2":
			fmt.Fprintf(w, roarPage, "http://c.org/", "")
		default:
			http.Error(w, "bad request", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	got, err := discovery.NewROAR(httpLoader(), srv.URL+"/cgi/oai2", []string{"s1", "s2"}, nil).
		Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.Candidate{
		{Source: "roar.eprints.org", URL: "http://a.org/"},
		{Source: "roar.eprints.org", URL: "http://b.org/"},
		{Source: "roar.eprints.org", URL: "http://c.org/"},
	}, got)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, queries, 3)
	assert.Equal(t, "metadataPrefix=oai_dc&set=s1&verb=ListRecords", queries[0])
	assert.Equal(t, "verb=ListRecords&resumptionToken=tok+1", queries[1])
}

func TestROAR_HTTPErrorFailsSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := discovery.NewROAR(httpLoader(), srv.URL, []string{"s1"}, nil).Discover(context.Background())
	require.ErrorIs(t, err, scraper.ErrUnexpectedStatus)
}
