// Package runner drives a classification run: it reads candidate rows,
// resolves and classifies each site in turn and writes one result row per
// input row.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/williampepple1/dspace-site-finder/internal/fetcher"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/internal/uri"
	"github.com/williampepple1/dspace-site-finder/pkg/models"
)

const (
	responseInvalidURL = "INVALID URL"
	responseTimeout    = "RESPONSE TIMEOUT"
)

// RowSource yields input rows, returning io.EOF after the last one
type RowSource interface {
	Next() ([]string, error)
}

// RowSink receives output rows
type RowSink interface {
	Write(record []string) error
}

// Fetcher resolves a URL to its terminal response
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Result, error)
}

// Classifier derives version and UI for a resolved page
type Classifier interface {
	Classify(ctx context.Context, finalURL *url.URL, doc *goquery.Document) models.Classification
}

// Runner processes rows strictly one after another
type Runner struct {
	fetcher    Fetcher
	classifier Classifier
	urlColumn  int
	log        logger.Logger
}

// New creates a Runner. urlColumn < 0 selects the URL column automatically.
func New(f Fetcher, c Classifier, urlColumn int, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{fetcher: f, classifier: c, urlColumn: urlColumn, log: log}
}

// Run consumes the header row of rows, then processes every data row and
// writes the result to out in input order. A cancelled ctx stops the run
// between rows; the counters gathered so far are returned with ctx.Err().
func (r *Runner) Run(ctx context.Context, rows RowSource, out RowSink) (models.RunCounters, error) {
	counters := models.RunCounters{Started: time.Now()}
	log := r.log.With(logger.String("run_id", uuid.NewString()))

	if _, err := rows.Next(); err != nil {
		if errors.Is(err, io.EOF) {
			log.Warn("input table is empty")
			return counters, nil
		}
		return counters, fmt.Errorf("read header: %w", err)
	}

	log.Info("classification run started")

	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			log.Warn("run interrupted", logger.Int("processed", counters.Processed))
			r.logSummary(log, counters)
			return counters, err
		}

		record, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return counters, fmt.Errorf("read row %d: %w", line, err)
		}

		row := r.processRow(ctx, log, line, record, &counters)
		if err := out.Write(row.Record()); err != nil {
			return counters, fmt.Errorf("write row %d: %w", line, err)
		}
	}

	r.logSummary(log, counters)
	return counters, nil
}

// SelectURL returns the source label and the raw URL of record. The source
// is the first column only when the row has at least two columns.
func SelectURL(record []string, column int) (source, rawURL string) {
	if len(record) >= 2 {
		source = strings.TrimSpace(record[0])
	}

	if column < 0 {
		column = 0
		if len(record) >= 2 {
			column = 1
		}
	}
	if column < len(record) {
		rawURL = strings.TrimSpace(record[column])
	}
	return source, rawURL
}

func (r *Runner) processRow(
	ctx context.Context,
	log logger.Logger,
	line int,
	record []string,
	counters *models.RunCounters,
) models.OutputRow {
	counters.Processed++

	source, rawURL := SelectURL(record, r.urlColumn)
	row := models.OutputRow{Source: source, URL: rawURL}

	if !uri.IsValidHTTPURI(rawURL) {
		counters.Invalid++
		row.Response = responseInvalidURL
		log.Info("invalid url", logger.Int("row", line), logger.String("url", rawURL))
		return row
	}

	log.Debug("processing", logger.Int("row", line), logger.String("url", rawURL))

	res, err := r.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		counters.Errors++
		row.Response = "RESPONSE ERROR: " + err.Error()
		log.Warn("request failed",
			logger.Int("row", line),
			logger.String("url", rawURL),
			logger.String("kind", fetcher.KindOf(err).String()),
			logger.Error(err))
		return row
	}
	if res == nil {
		counters.Errors++
		row.Response = responseTimeout
		log.Warn("no response", logger.Int("row", line), logger.String("url", rawURL))
		return row
	}

	if res.FinalURL != nil {
		row.URL = res.FinalURL.String()
	}
	row.Response = res.Summary()

	if !res.OK() {
		counters.Errors++
		log.Info("unsuccessful response",
			logger.Int("row", line),
			logger.String("url", row.URL),
			logger.Int("status", res.StatusCode))
		return row
	}

	classification := r.classifier.Classify(ctx, res.FinalURL, res.Document)
	row.Version = classification.Version
	row.UIType = classification.UI.String()

	bucket(row.UIType, counters)
	log.Info("classified",
		logger.Int("row", line),
		logger.String("url", row.URL),
		logger.String("version", row.Version),
		logger.String("ui", row.UIType))

	return row
}

// bucket counts a rendered UI type. Matching is by substring so that
// "JSPUI (possibly)" counts as JSPUI.
func bucket(ui string, counters *models.RunCounters) {
	switch {
	case strings.Contains(ui, "XMLUI"):
		counters.XMLUI++
		counters.Valid++
	case strings.Contains(ui, "JSPUI"):
		counters.JSPUI++
		counters.Valid++
	case strings.Contains(ui, "UNKNOWN"):
		counters.UnknownUI++
	default:
		counters.Errors++
	}
}

func (r *Runner) logSummary(log logger.Logger, c models.RunCounters) {
	elapsed := time.Since(c.Started)
	log.Info(fmt.Sprintf("processed %d sites in %d minutes %d seconds",
		c.Processed, int(elapsed.Minutes()), int(elapsed.Seconds())%60),
		logger.Int("valid", c.Valid),
		logger.Int("jspui", c.JSPUI),
		logger.Int("xmlui", c.XMLUI),
		logger.Int("invalid", c.Invalid),
		logger.Int("unknown_ui", c.UnknownUI),
		logger.Int("errors", c.Errors))
}
