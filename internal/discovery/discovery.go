// Package discovery collects candidate DSpace site URLs from repository
// registries and search engines.
package discovery

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/internal/uri"
	"github.com/williampepple1/dspace-site-finder/pkg/models"
)

// Source yields candidate URLs from one place
type Source interface {
	Name() string
	Discover(ctx context.Context) ([]models.Candidate, error)
}

// Run queries every enabled source in order and returns their candidates
// with invalid URLs removed and duplicates (by comparable key) collapsed to
// the first occurrence. A failing source is logged and skipped.
func Run(ctx context.Context, sources []Source, cfg config.DiscoveryConfig, log logger.Logger) ([]models.Candidate, error) {
	if log == nil {
		log = logger.NewNop()
	}

	var all []models.Candidate
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !cfg.SourceEnabled(src.Name()) {
			log.Info("source disabled", logger.String("source", src.Name()))
			continue
		}

		found, err := src.Discover(ctx)
		if err != nil {
			log.Error("source failed", logger.String("source", src.Name()), logger.Error(err))
			continue
		}
		log.Info("source done", logger.String("source", src.Name()), logger.Int("results", len(found)))
		all = append(all, found...)
	}

	valid := make([]models.Candidate, 0, len(all))
	for _, c := range all {
		if uri.IsValidHTTPURI(c.URL) {
			valid = append(valid, c)
		}
	}
	unique := uri.UniqueBy(valid, func(c models.Candidate) string { return c.URL })

	log.Info("discovery finished",
		logger.Int("found", len(all)),
		logger.Int("valid", len(valid)),
		logger.Int("unique", len(unique)))

	return unique, nil
}

// xmlTexts parses body as XML and returns the trimmed text of every node
// matching expr.
func xmlTexts(body []byte, expr string) ([]string, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	nodes, err := xmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", expr, err)
	}

	texts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		texts = append(texts, strings.TrimSpace(n.InnerText()))
	}
	return texts, nil
}
