package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/time/rate"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/internal/scraper"
	"github.com/williampepple1/dspace-site-finder/pkg/models"
)

// SourceGoogle is the name of the search engine source
const SourceGoogle = "google"

// DefaultJitter is the upper bound of the random delay added to the pause
// between result pages.
const DefaultJitter = 2 * time.Second

// ErrNoQueries is returned when a query selection matches nothing
var ErrNoQueries = errors.New("no search queries selected")

// Query is a canned search plus the filter and rewrite that turn its hits
// into likely DSpace home page URLs.
type Query struct {
	ID   string
	Text string
	// Keep drops hits that do not match.
	Keep *regexp.Regexp
	// Strip is replaced (first match only) by "/".
	Strip *regexp.Regexp
}

var (
	htmlmapSuffix       = regexp.MustCompile(`/htmlmap$`)
	htmlmapPath         = regexp.MustCompile(`/htmlmap`)
	communityListSuffix = regexp.MustCompile(`/community-list$`)
	communityListPath   = regexp.MustCompile(`/community-list`)
	oaiRequest          = regexp.MustCompile(`oai/request`)
	oaiRequestSuffix    = regexp.MustCompile(`/[^/]*oai/request(\?.*)?$`)
)

// Queries are the canned searches, selectable by ID
var Queries = []Query{
	{ID: "1", Text: `htmlmap "url list" -map`, Keep: htmlmapSuffix, Strip: htmlmapPath},
	{ID: "2", Text: `htmlmap "ResourceNotFoundException"`, Keep: htmlmapSuffix, Strip: htmlmapPath},
	{ID: "3", Text: `allinurl:xmlui community-list`, Keep: communityListSuffix, Strip: communityListPath},
	{ID: "4", Text: `allinurl:jspui community-list`, Keep: communityListSuffix, Strip: communityListPath},
	{ID: "5", Text: `allinurl:dspace community-list`, Keep: communityListSuffix, Strip: communityListPath},
	{ID: "6", Text: `allinurl:oai request`, Keep: oaiRequest, Strip: oaiRequestSuffix},
}

// SelectQueries parses "all" or a comma separated list of query IDs.
// IDs that name no query are ignored.
func SelectQueries(option string) ([]Query, error) {
	option = strings.TrimSpace(option)
	if option == "" || strings.EqualFold(option, "all") {
		return Queries, nil
	}

	wanted := make(map[string]struct{})
	for _, id := range strings.Split(option, ",") {
		wanted[strings.TrimSpace(id)] = struct{}{}
	}

	var selected []Query
	for _, q := range Queries {
		if _, ok := wanted[q.ID]; ok {
			selected = append(selected, q)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoQueries, option)
	}
	return selected, nil
}

// Apply filters and rewrites raw search hits
func (q Query) Apply(hits []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, 0, len(hits))
	for _, c := range hits {
		if q.Keep != nil && !q.Keep.MatchString(c.URL) {
			continue
		}
		if q.Strip != nil {
			c.URL = replaceFirst(q.Strip, c.URL, "/")
		}
		out = append(out, c)
	}
	return out
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}

// Google pages through search results for each selected query
type Google struct {
	loader     scraper.PageLoader
	baseURL    string
	maxResults int
	pageSize   int
	queries    []Query
	limiter    *rate.Limiter
	log        logger.Logger

	// Jitter bounds the random extra delay between pages.
	Jitter time.Duration
}

// NewGoogle creates a search source running queries
func NewGoogle(loader scraper.PageLoader, cfg config.DiscoveryConfig, queries []Query, log logger.Logger) *Google {
	if log == nil {
		log = logger.NewNop()
	}

	limit := rate.Inf
	if cfg.GooglePause > 0 {
		limit = rate.Every(cfg.GooglePause)
	}

	return &Google{
		loader:     loader,
		baseURL:    cfg.GoogleURL,
		maxResults: cfg.GoogleMaxResults,
		pageSize:   cfg.GooglePageSize,
		queries:    queries,
		limiter:    rate.NewLimiter(limit, 1),
		log:        log,
		Jitter:     DefaultJitter,
	}
}

func (g *Google) Name() string { return SourceGoogle }

// Discover runs every query and returns the filtered hits
func (g *Google) Discover(ctx context.Context) ([]models.Candidate, error) {
	var candidates []models.Candidate
	for _, q := range g.queries {
		hits, err := g.Search(ctx, q.Text)
		if err != nil {
			return nil, err
		}
		kept := q.Apply(hits)
		g.log.Info("query done",
			logger.String("query", q.Text),
			logger.Int("hits", len(hits)),
			logger.Int("kept", len(kept)))
		candidates = append(candidates, kept...)
	}
	return candidates, nil
}

// Search returns every <cite> URL across the result pages of query. It
// stops at maxResults, when a page has no "Next" link or on a failed
// request; failures end the query without discarding earlier pages.
// Only context cancellation is returned as an error.
func (g *Google) Search(ctx context.Context, query string) ([]models.Candidate, error) {
	label := fmt.Sprintf("Google '%s'", query)
	var results []models.Candidate
	next := ""

	g.log.Info("searching", logger.String("query", query))

	for start := 0; start < g.maxResults; start += g.pageSize {
		if err := g.wait(ctx, start > 0); err != nil {
			return nil, err
		}

		querystring := url.Values{
			"q":      {query},
			"oq":     {query},
			"num":    {strconv.Itoa(g.pageSize)},
			"start":  {strconv.Itoa(start)},
			"filter": {"0"},
		}.Encode()
		if next != "" {
			querystring = next
		}

		page, err := g.loader.Load(ctx, g.baseURL+"?"+querystring)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.log.Warn("search request failed, stopping", logger.String("query", query), logger.Error(err))
			break
		}

		hits := citeURLs(page.Document)
		for _, u := range hits {
			results = append(results, models.Candidate{Source: label, URL: u})
		}
		g.log.Debug("results page", logger.Int("start", start), logger.Int("results", len(hits)))

		next = nextQuery(page.Body)
		if next == "" {
			g.log.Debug("no next link, stopping", logger.String("query", query))
			break
		}
	}

	return results, nil
}

func (g *Google) wait(ctx context.Context, jitter bool) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	if !jitter || g.Jitter <= 0 {
		return nil
	}

	timer := time.NewTimer(rand.N(g.Jitter))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// citeURLs returns the text of every <cite>, prefixed with http:// when it
// has no scheme.
func citeURLs(doc *goquery.Document) []string {
	if doc == nil {
		return nil
	}

	var urls []string
	doc.Find("cite").Each(func(_ int, s *goquery.Selection) {
		u := strings.TrimSpace(s.Text())
		if u == "" {
			return
		}
		if !strings.HasPrefix(u, "http") {
			u = "http://" + u
		}
		urls = append(urls, u)
	})
	return urls
}

// nextQuery returns the query string of the "Next" results link
func nextQuery(body []byte) string {
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	link := htmlquery.FindOne(doc, `//a[span/text()="Next"]`)
	if link == nil {
		return ""
	}

	href, err := url.Parse(htmlquery.SelectAttr(link, "href"))
	if err != nil {
		return ""
	}
	return href.RawQuery
}
