// Package geo appends the hosting country to each row of a site table.
package geo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/internal/scraper"
	"github.com/williampepple1/dspace-site-finder/internal/uri"
)

// Unknown is reported whenever the lookup fails or finds nothing
const Unknown = "UNKNOWN"

// CountryHeader is appended to the header row
const CountryHeader = "COUNTRY"

// RowSource yields table rows, returning io.EOF after the last one
type RowSource interface {
	Next() ([]string, error)
}

// RowSink receives table rows
type RowSink interface {
	Write(record []string) error
}

// Locator looks up the country of a site's host with a freegeoip style
// XML service.
type Locator struct {
	loader   scraper.PageLoader
	endpoint string
	log      logger.Logger
}

// NewLocator creates a Locator querying endpoint + host
func NewLocator(loader scraper.PageLoader, endpoint string, log logger.Logger) *Locator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Locator{loader: loader, endpoint: endpoint, log: log}
}

// Country returns the <CountryName> reported for the host of rawURL, or
// Unknown.
func (l *Locator) Country(ctx context.Context, rawURL string) string {
	u, ok := uri.Parse(rawURL)
	if !ok {
		return Unknown
	}

	page, err := l.loader.Load(ctx, l.endpoint+u.Hostname())
	if err != nil {
		l.log.Debug("country lookup failed", logger.String("host", u.Hostname()), logger.Error(err))
		return Unknown
	}

	doc, err := xmlquery.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return Unknown
	}
	node := xmlquery.FindOne(doc, "//CountryName")
	if node == nil {
		return Unknown
	}
	if country := strings.TrimSpace(node.InnerText()); country != "" {
		return country
	}
	return Unknown
}

// Enrich copies rows to out with a trailing country column. The first row
// is treated as the header. Rows whose URL column is not a valid URL get an
// empty country.
func (l *Locator) Enrich(ctx context.Context, rows RowSource, out RowSink, column int) (int, error) {
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("read row %d: %w", count+1, err)
		}
		count++

		country := CountryHeader
		if count > 1 {
			country = l.rowCountry(ctx, count, row, column)
		}

		if err := out.Write(append(row, country)); err != nil {
			return count, fmt.Errorf("write row %d: %w", count, err)
		}
	}
}

func (l *Locator) rowCountry(ctx context.Context, line int, row []string, column int) string {
	if column < 0 || column >= len(row) {
		return ""
	}

	rawURL := strings.TrimSpace(row[column])
	if !uri.IsValidHTTPURI(rawURL) {
		return ""
	}

	country := l.Country(ctx, rawURL)
	l.log.Info("country", logger.Int("row", line), logger.String("url", rawURL), logger.String("country", country))
	return country
}
