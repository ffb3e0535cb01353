// Package fetcher resolves a candidate URL to its terminal page, following
// both HTTP redirects and HTML meta-refresh redirects up to a fixed bound.
package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/extraction"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/internal/proxy"
	"github.com/williampepple1/dspace-site-finder/internal/uri"
	"github.com/williampepple1/dspace-site-finder/pkg/models"
)

// maxResponseBody caps how much of a page is read.
const maxResponseBody = 10 << 20

// State is the fetcher's position in the redirect state machine
type State int

const (
	StateRequesting State = iota
	StateFollowedHTTPRedirect
	StateFollowedMetaRedirect
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFollowedHTTPRedirect:
		return "http_redirect"
	case StateFollowedMetaRedirect:
		return "meta_redirect"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "requesting"
	}
}

// Hop records one request made while resolving a URL
type Hop struct {
	URL        string
	StatusCode int
	State      State
	Next       string
}

// Result is the terminal state of a Fetch.
// Document is set only for a successful response with a non-empty body.
type Result struct {
	FinalURL   *url.URL
	State      State
	Status     models.StatusClass
	StatusCode int
	Message    string
	Body       []byte
	Document   *goquery.Document
	Hops       []Hop
}

// OK reports whether the terminal response was a 2xx
func (r *Result) OK() bool {
	return r != nil && r.Status == models.StatusSuccess
}

// Summary is the "<code> <message>" form written to the RESPONSE column
func (r *Result) Summary() string {
	if r.Message == "" {
		return strconv.Itoa(r.StatusCode)
	}
	return fmt.Sprintf("%d %s", r.StatusCode, r.Message)
}

// hop is the immutable outcome of one request
type hop struct {
	state      State
	statusCode int
	message    string
	body       []byte
	doc        *goquery.Document
	next       string
}

// Fetcher issues the GET requests for site probes
type Fetcher struct {
	client       *http.Client
	maxRedirects int
	userAgents   []string
	log          logger.Logger
}

// New creates a Fetcher from the fetcher section of the configuration.
// Certificate verification is skipped when InsecureSkipVerify is set so
// that sites with self-signed or expired certificates can still be probed.
func New(cfg config.FetcherConfig, proxies *proxy.Manager, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // probing sites with broken certificates
		},
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
		IdleConnTimeout:       90 * time.Second,
	}
	proxies.ApplyToTransport(transport)

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxRedirects: cfg.MaxRedirects,
		userAgents:   cfg.UserAgents,
		log:          log,
	}
}

// Fetch requests rawURL and follows redirects until a terminal response, a
// redirect loop, or more than maxRedirects visited URLs.
//
// On loop or exhaustion the last response is returned with FinalURL set to
// the URL that was not requested, in a terminal state: StateFailed after an
// HTTP redirect, StateSuccess with no Document after a meta refresh. A nil Result with a nil error means no
// request was made at all. Transport failures are returned as *Error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	current, ok := uri.Parse(rawURL)
	if !ok {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL, Err: ErrInvalidURL}
	}

	visited := make(map[string]struct{}, f.maxRedirects+1)
	var hops []Hop
	var last *hop

	for {
		key := current.String()
		if _, seen := visited[key]; seen || len(visited) > f.maxRedirects {
			f.log.Debug("redirects exhausted",
				logger.String("url", key),
				logger.Bool("loop", seen),
				logger.Int("visited", len(visited)))
			break
		}
		visited[key] = struct{}{}

		h, err := f.request(ctx, current)
		if err != nil {
			return nil, err
		}
		last = h
		hops = append(hops, Hop{URL: key, StatusCode: h.statusCode, State: h.state, Next: h.next})

		if h.state != StateFollowedHTTPRedirect && h.state != StateFollowedMetaRedirect {
			return h.result(current, hops), nil
		}

		next, err := resolveNext(current, h.next)
		if err != nil {
			return nil, err
		}
		f.log.Debug("following redirect",
			logger.String("from", key),
			logger.String("to", next.String()),
			logger.String("kind", h.state.String()))
		current = next
	}

	if last == nil {
		return nil, nil
	}

	res := last.result(current, hops)
	switch res.State {
	case StateFollowedHTTPRedirect:
		res.State = StateFailed
	case StateFollowedMetaRedirect:
		res.State = StateSuccess
	}
	return res, nil
}

func (h *hop) result(final *url.URL, hops []Hop) *Result {
	return &Result{
		FinalURL:   final,
		State:      h.state,
		Status:     models.ClassifyStatus(h.statusCode),
		StatusCode: h.statusCode,
		Message:    h.message,
		Body:       h.body,
		Document:   h.doc,
		Hops:       hops,
	}
}

func resolveNext(current *url.URL, location string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return nil, &Error{Kind: KindInvalidRedirect, URL: location, Err: err}
	}

	next := current.ResolveReference(ref)
	if _, ok := uri.Parse(next.String()); !ok {
		return nil, &Error{Kind: KindInvalidRedirect, URL: location, Err: ErrInvalidURL}
	}
	return next, nil
}

// request performs a single GET and classifies the response
func (f *Fetcher) request(ctx context.Context, target *url.URL) (*hop, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, newError(target.String(), err)
	}
	if len(f.userAgents) > 0 {
		req.Header.Set("User-Agent", f.userAgents[rand.IntN(len(f.userAgents))])
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newError(target.String(), err)
	}
	defer resp.Body.Close()

	h := &hop{
		statusCode: resp.StatusCode,
		message:    reasonPhrase(resp),
	}

	switch models.ClassifyStatus(resp.StatusCode) {
	case models.StatusRedirection:
		location := resp.Header.Get("Location")
		if location == "" {
			h.state = StateFailed
			return h, nil
		}
		h.state = StateFollowedHTTPRedirect
		h.next = location
		return h, nil

	case models.StatusSuccess:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return nil, newError(target.String(), err)
		}
		h.body = body
		h.doc = parseHTML(body, resp.Header.Get("Content-Type"))

		if next, ok := extraction.RefreshTarget(h.doc); ok {
			h.state = StateFollowedMetaRedirect
			h.next = next
			h.doc = nil
			return h, nil
		}
		h.state = StateSuccess
		return h, nil

	default:
		h.state = StateFailed
		return h, nil
	}
}

// parseHTML decodes body using the declared or sniffed charset. Empty or
// unparseable bodies yield nil.
func parseHTML(body []byte, contentType string) *goquery.Document {
	if len(body) == 0 {
		return nil
	}

	var r io.Reader = bytes.NewReader(body)
	if decoded, err := charset.NewReader(r, contentType); err == nil {
		r = decoded
	} else {
		r = bytes.NewReader(body)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil
	}
	return doc
}

// reasonPhrase returns the status text sent by the server, falling back to
// the standard text for the code.
func reasonPhrase(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if msg := strings.TrimPrefix(resp.Status, prefix); msg != resp.Status && msg != "" {
		return msg
	}
	return http.StatusText(resp.StatusCode)
}
