package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/internal/proxy"
)

const maxPageSize = 10 << 20

// HTTPLoader loads pages with a plain HTTP client, rotating user agents
type HTTPLoader struct {
	client     *http.Client
	userAgents []string
	log        logger.Logger
}

// NewHTTPLoader creates a new HTTP page loader
func NewHTTPLoader(cfg *config.FetcherConfig, proxies *proxy.Manager, log logger.Logger) *HTTPLoader {
	if log == nil {
		log = logger.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	proxies.ApplyToTransport(transport)

	return &HTTPLoader{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		userAgents: cfg.UserAgents,
		log:        log,
	}
}

// Load fetches rawURL. Non-2xx responses are returned together with an
// error wrapping ErrUnexpectedStatus.
func (l *HTTPLoader) Load(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}

	if len(l.userAgents) > 0 {
		req.Header.Set("User-Agent", l.userAgents[rand.IntN(len(l.userAgents))])
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	page := &Page{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode, Body: body}
	l.log.Debug("page loaded", logger.String("url", page.URL), logger.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return page, statusError(rawURL, resp.StatusCode)
	}

	reader, err := charset.NewReader(bytes.NewReader(body), resp.Header.Get("Content-Type"))
	if err != nil {
		reader = bytes.NewReader(body)
	}
	page.Document, err = goquery.NewDocumentFromReader(reader)
	if err != nil {
		return page, fmt.Errorf("parse %s: %w", rawURL, err)
	}

	return page, nil
}
