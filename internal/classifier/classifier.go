// Package classifier decides which DSpace version and user interface a
// resolved site runs, using page metadata, the URL and one ?XML probe.
package classifier

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"

	"github.com/williampepple1/dspace-site-finder/internal/extraction"
	"github.com/williampepple1/dspace-site-finder/internal/fetcher"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/pkg/models"
)

// Prober performs the secondary ?XML request
type Prober interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Result, error)
}

// Classifier derives a models.Classification from a fetched page
type Classifier struct {
	prober Prober
	log    logger.Logger
}

// New creates a Classifier that issues secondary probes through prober
func New(prober Prober, log logger.Logger) *Classifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &Classifier{prober: prober, log: log}
}

// Classify never fails: uncertainty is reported through sentinel values.
func (c *Classifier) Classify(ctx context.Context, finalURL *url.URL, doc *goquery.Document) models.Classification {
	version := Version(doc)
	return models.Classification{
		Version: version,
		UI:      c.uiType(ctx, finalURL, version),
	}
}

// Version returns the generator metadata of doc or models.UnknownVersion
func Version(doc *goquery.Document) string {
	if generator := extraction.Generator(doc); generator != "" {
		return generator
	}
	return models.UnknownVersion
}

func (c *Classifier) uiType(ctx context.Context, finalURL *url.URL, version string) models.UIType {
	target := finalURL.String()

	// The URL path is trusted when it names the UI.
	switch {
	case extraction.ContainsWordString(target, "jspui"):
		return models.UIType{Kind: models.UIJSPUI}
	case extraction.ContainsWordString(target, "xmlui"):
		return models.UIType{Kind: models.UIXMLUI}
	}

	probeURL := ProbeURL(target)
	c.log.Debug("probing for XMLUI", logger.String("url", probeURL))

	res, err := c.prober.Fetch(ctx, probeURL)
	if err != nil {
		return models.UIType{Kind: models.UIResponseError, Detail: err.Error()}
	}
	if res == nil {
		return models.UIType{Kind: models.UIResponseError}
	}
	if !res.OK() {
		return models.UIType{Kind: models.UIResponseFailed, Detail: res.Summary()}
	}

	return fromProbeBody(res.Body, version)
}

// fromProbeBody applies the body heuristics, strongest signal first.
func fromProbeBody(body []byte, version string) models.UIType {
	switch {
	case hasDocumentRoot(body):
		// Only the XMLUI answers ?XML with its DRI <document> tree.
		return models.UIType{Kind: models.UIXMLUI}
	case strings.Contains(version, "DSpace"):
		return models.UIType{Kind: models.UIJSPUI}
	case extraction.ContainsWord(body, "mydspace"):
		return models.UIType{Kind: models.UIJSPUI}
	case extraction.ContainsWord(body, "htmlmap"):
		return models.UIType{Kind: models.UIJSPUI}
	case extraction.ContainsWord(body, "dspace"):
		return models.UIType{Kind: models.UIJSPUIPossibly}
	default:
		return models.UIType{Kind: models.UIUnknown}
	}
}

// ProbeURL appends the XML flag to target as a new or additional query
// parameter.
func ProbeURL(target string) string {
	if strings.Contains(target, "?") {
		return target + "&XML"
	}
	return target + "?XML"
}

// hasDocumentRoot reports whether body is well-formed XML whose root
// element is named "document".
func hasDocumentRoot(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return false
	}

	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return false
	}

	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n.Data == "document"
		}
	}
	return false
}
