package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
)

// BrowserLoader renders pages in headless Chrome
type BrowserLoader struct {
	Config  *config.BrowserConfig
	Timeout time.Duration
	log     logger.Logger
}

// NewBrowserLoader creates a new browser page loader
func NewBrowserLoader(cfg *config.BrowserConfig, timeout time.Duration, log logger.Logger) *BrowserLoader {
	if log == nil {
		log = logger.NewNop()
	}
	return &BrowserLoader{Config: cfg, Timeout: timeout, log: log}
}

// Load navigates to rawURL, waits for scripts to settle and returns the
// rendered markup. The browser does not expose the status code, so a
// rendered page is reported as 200.
func (l *BrowserLoader) Load(ctx context.Context, rawURL string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, l.Timeout+l.Config.WaitTime)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.Config.Headless),
		chromedp.UserAgent(l.Config.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.Sleep(l.Config.WaitTime),
		chromedp.OuterHTML("html", &html),
	); err != nil {
		return nil, fmt.Errorf("render %s: %w", rawURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}

	l.log.Debug("page rendered", logger.String("url", rawURL), logger.Int("bytes", len(html)))

	return &Page{URL: rawURL, StatusCode: 200, Body: []byte(html), Document: doc}, nil
}
