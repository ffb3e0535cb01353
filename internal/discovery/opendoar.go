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

// OpenDOARLabel is the SOURCE value of OpenDOAR candidates
const OpenDOARLabel = "OpenDOAR.org"

// OpenDOAR queries the OpenDOAR API for repositories matching "dspace"
type OpenDOAR struct {
	loader   scraper.PageLoader
	endpoint string
	log      logger.Logger
}

// NewOpenDOAR creates an OpenDOAR source
func NewOpenDOAR(loader scraper.PageLoader, endpoint string, log logger.Logger) *OpenDOAR {
	if log == nil {
		log = logger.NewNop()
	}
	return &OpenDOAR{loader: loader, endpoint: endpoint, log: log}
}

func (o *OpenDOAR) Name() string { return config.SourceOpenDOAR }

// Discover returns the <rUrl> of every listed repository
func (o *OpenDOAR) Discover(ctx context.Context) ([]models.Candidate, error) {
	u, err := url.Parse(o.endpoint)
	if err != nil {
		return nil, fmt.Errorf("opendoar endpoint: %w", err)
	}
	q := u.Query()
	q.Set("kwd", "dspace")
	u.RawQuery = q.Encode()

	o.log.Info("querying OpenDOAR", logger.String("url", u.String()))

	page, err := o.loader.Load(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("opendoar: %w", err)
	}

	urls, err := xmlTexts(page.Body, "//rUrl")
	if err != nil {
		return nil, fmt.Errorf("opendoar: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(urls))
	for _, u := range urls {
		candidates = append(candidates, models.Candidate{Source: OpenDOARLabel, URL: u})
	}
	return candidates, nil
}
