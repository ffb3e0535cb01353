package fetcher

import (
	"context"
	"errors"
	"net"
)

// ErrInvalidURL is returned for a URL that is not an absolute http(s) URI.
var ErrInvalidURL = errors.New("not an absolute http(s) URL")

// ErrorKind classifies a failure to obtain any HTTP response
type ErrorKind int

const (
	// KindOther is any failure not covered below.
	KindOther ErrorKind = iota
	// KindTimeout means the connection or read timed out.
	KindTimeout
	// KindNetwork is a DNS, dial or socket failure.
	KindNetwork
	// KindInvalidURL means the starting URL was rejected before any request.
	KindInvalidURL
	// KindInvalidRedirect means a redirect pointed at something that is not
	// an http(s) URL.
	KindInvalidRedirect
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindInvalidURL:
		return "invalid_url"
	case KindInvalidRedirect:
		return "invalid_redirect"
	default:
		return "other"
	}
}

// Error is returned when a fetch produced no usable HTTP response
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindInvalidRedirect {
		return "invalid redirect to " + e.URL + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or KindOther when err is not an *Error
func KindOf(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindOther
}

func newError(rawURL string, err error) *Error {
	return &Error{Kind: classifyError(err), URL: rawURL, Err: err}
}

func classifyError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return KindNetwork
	}

	return KindOther
}
