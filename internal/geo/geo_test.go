package geo_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/geo"
	"github.com/williampepple1/dspace-site-finder/internal/io"
	"github.com/williampepple1/dspace-site-finder/internal/scraper"
)

type memorySink struct {
	rows [][]string
}

func (m *memorySink) Write(record []string) error {
	m.rows = append(m.rows, record)
	return nil
}

func geoServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := strings.TrimPrefix(r.URL.Path, "/xml/")
		w.Header().Set("Content-Type", "application/xml")
		switch host {
		case "repo.example.no":
			fmt.Fprint(w, `<Response><IP>1.2.3.4</IP><CountryCode>NO</CountryCode><CountryName>Norway</CountryName></Response>`)
		case "blank.example.org":
			fmt.Fprint(w, `<Response><CountryName></CountryName></Response>`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func locator(srv *httptest.Server) *geo.Locator {
	loader := scraper.NewHTTPLoader(&config.FetcherConfig{Timeout: 5 * time.Second}, nil, nil)
	return geo.NewLocator(loader, srv.URL+"/xml/", nil)
}

func TestLocator_Country(t *testing.T) {
	t.Parallel()

	l := locator(geoServer(t))
	ctx := context.Background()

	assert.Equal(t, "Norway", l.Country(ctx, "http://repo.example.no/jspui/"))
	assert.Equal(t, geo.Unknown, l.Country(ctx, "http://blank.example.org/"))
	assert.Equal(t, geo.Unknown, l.Country(ctx, "http://missing.example.org/"))
	assert.Equal(t, geo.Unknown, l.Country(ctx, "not a url"))
}

func TestLocator_Enrich(t *testing.T) {
	t.Parallel()

	l := locator(geoServer(t))
	table := io.NewTableReader("").FromBytes([]byte(
		"SOURCE,DSPACE_URL\nOpenDOAR.org,http://repo.example.no/\nOpenDOAR.org,bogus\nshort\n"))

	sink := &memorySink{}
	count, err := l.Enrich(context.Background(), table, sink, 1)
	require.NoError(t, err)

	assert.Equal(t, 4, count)
	assert.Equal(t, [][]string{
		{"SOURCE", "DSPACE_URL", "COUNTRY"},
		{"OpenDOAR.org", "http://repo.example.no/", "Norway"},
		{"OpenDOAR.org", "bogus", ""},
		{"short", ""},
	}, sink.rows)
}
