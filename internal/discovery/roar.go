package discovery

import (
	"context"
	"fmt"
	"net/url"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/internal/scraper"
	"github.com/williampepple1/dspace-site-finder/pkg/models"
)

// ROARLabel is the SOURCE value of ROAR candidates
const ROARLabel = "roar.eprints.org"

// OAI-PMH elements are namespaced, so match on local names.
const (
	roarIdentifierXPath = "//*[local-name()='metadata']/*[local-name()='dc']/*[local-name()='identifier']"
	roarTokenXPath      = "//*[local-name()='resumptionToken']"
)

// ROAR harvests the ROAR OAI-PMH interface for the configured sets
type ROAR struct {
	loader   scraper.PageLoader
	endpoint string
	sets     []string
	log      logger.Logger
}

// NewROAR creates a ROAR source harvesting sets
func NewROAR(loader scraper.PageLoader, endpoint string, sets []string, log logger.Logger) *ROAR {
	if log == nil {
		log = logger.NewNop()
	}
	return &ROAR{loader: loader, endpoint: endpoint, sets: sets, log: log}
}

func (r *ROAR) Name() string { return config.SourceROAR }

// Discover lists the records of every set, following resumption tokens
// until a page carries none.
func (r *ROAR) Discover(ctx context.Context) ([]models.Candidate, error) {
	var candidates []models.Candidate
	for _, set := range r.sets {
		found, err := r.harvest(ctx, set)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, found...)
	}
	return candidates, nil
}

func (r *ROAR) harvest(ctx context.Context, set string) ([]models.Candidate, error) {
	query := url.Values{
		"verb":           {"ListRecords"},
		"metadataPrefix": {"oai_dc"},
		"set":            {set},
	}.Encode()

	seen := make(map[string]struct{})
	var candidates []models.Candidate

	for {
		target := r.endpoint + "?" + query
		r.log.Info("querying ROAR", logger.String("set", set), logger.String("url", target))

		page, err := r.loader.Load(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("roar set %s: %w", set, err)
		}

		ids, err := xmlTexts(page.Body, roarIdentifierXPath)
		if err != nil {
			return nil, fmt.Errorf("roar set %s: %w", set, err)
		}
		for _, id := range ids {
			candidates = append(candidates, models.Candidate{Source: ROARLabel, URL: id})
		}
		r.log.Debug("ROAR page", logger.String("set", set), logger.Int("results", len(ids)))

		tokens, err := xmlTexts(page.Body, roarTokenXPath)
		if err != nil {
			return nil, fmt.Errorf("roar set %s: %w", set, err)
		}
		if len(tokens) == 0 || tokens[0] == "" {
			return candidates, nil
		}

		token := tokens[0]
		if _, dup := seen[token]; dup {
			r.log.Warn("repeated resumption token", logger.String("set", set), logger.String("token", token))
			return candidates, nil
		}
		seen[token] = struct{}{}

		query = "verb=ListRecords&resumptionToken=" + url.QueryEscape(token)
	}
}
