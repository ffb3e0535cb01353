// Package scraper loads search and registry pages, either over plain HTTP
// or through a headless Chrome when the results need JavaScript.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/internal/proxy"
)

// ErrUnexpectedStatus is returned for any non-2xx page
var ErrUnexpectedStatus = errors.New("unexpected status")

// Page is a loaded document
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Document   *goquery.Document
}

// PageLoader defines the interface for fetching a page
type PageLoader interface {
	Load(ctx context.Context, rawURL string) (*Page, error)
}

// New creates a page loader based on the configuration
func New(cfg *config.AppConfig, log logger.Logger) PageLoader {
	if cfg.Browser.Enabled {
		return NewBrowserLoader(&cfg.Browser, cfg.Fetcher.Timeout, log)
	}
	return NewHTTPLoader(&cfg.Fetcher, proxy.NewManager(&cfg.Proxies), log)
}

func statusError(rawURL string, code int) error {
	return fmt.Errorf("%w: %s returned %d %s", ErrUnexpectedStatus, rawURL, code, http.StatusText(code))
}
