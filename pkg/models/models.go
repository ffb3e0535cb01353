package models

import (
	"fmt"
	"time"
)

// UnknownVersion is reported when a page carries no generator metadata.
// The generator tag was introduced in DSpace 1.6.0.
const UnknownVersion = "UNKNOWN (possibly < 1.6.0)"

// OutputHeader is the header row of a classification results table
var OutputHeader = []string{"SOURCE", "DSPACE_URL", "RESPONSE", "VERSION_TAG", "UI_TYPE"}

// CandidateHeader is the header row of a discovery results table
var CandidateHeader = []string{"SOURCE", "DSPACE_URL"}

// Candidate is a URL believed to reference a DSpace site, with a label
// describing where it was found (e.g. "OpenDOAR.org").
type Candidate struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// Record returns the candidate as a table row
func (c Candidate) Record() []string {
	return []string{c.Source, c.URL}
}

// StatusClass groups an HTTP exchange by outcome
type StatusClass int

const (
	// StatusTransportError means no response was received.
	StatusTransportError StatusClass = iota
	// StatusTimeout means the request timed out before a response arrived.
	StatusTimeout
	// StatusSuccess is any 2xx response.
	StatusSuccess
	// StatusRedirection is any 3xx response.
	StatusRedirection
	// StatusClientOrServerError is any other response.
	StatusClientOrServerError
)

// ClassifyStatus maps an HTTP status code onto a StatusClass
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return StatusSuccess
	case code >= 300 && code < 400:
		return StatusRedirection
	default:
		return StatusClientOrServerError
	}
}

func (s StatusClass) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRedirection:
		return "redirection"
	case StatusClientOrServerError:
		return "client_or_server_error"
	case StatusTimeout:
		return "timeout"
	default:
		return "transport_error"
	}
}

// UIKind identifies which DSpace user interface a site exposes, or why
// that could not be determined.
type UIKind int

const (
	UIUnknown UIKind = iota
	UIJSPUI
	UIXMLUI
	UIJSPUIPossibly
	UIResponseFailed
	UIResponseError
)

// UIType is a UIKind plus the detail needed to render failure states
type UIType struct {
	Kind   UIKind
	Detail string
}

// String renders the UI type exactly as it appears in the UI_TYPE column
func (u UIType) String() string {
	switch u.Kind {
	case UIJSPUI:
		return "JSPUI"
	case UIXMLUI:
		return "XMLUI"
	case UIJSPUIPossibly:
		return "JSPUI (possibly)"
	case UIResponseFailed:
		return fmt.Sprintf("RESPONSE FAILED: (%s)", u.Detail)
	case UIResponseError:
		return fmt.Sprintf("RESPONSE ERROR: (%s)", u.Detail)
	default:
		return "UNKNOWN (may not be DSpace)"
	}
}

// Classification is the version and UI detected for one site
type Classification struct {
	Version string `json:"version"`
	UI      UIType `json:"ui"`
}

// OutputRow is one line of the classification results table
type OutputRow struct {
	Source   string `json:"source"`
	URL      string `json:"url"`
	Response string `json:"response"`
	Version  string `json:"version,omitempty"`
	UIType   string `json:"ui_type,omitempty"`
}

// Record returns the row in OutputHeader column order
func (r OutputRow) Record() []string {
	return []string{r.Source, r.URL, r.Response, r.Version, r.UIType}
}

// RunCounters aggregates the outcome of a classification run
type RunCounters struct {
	Processed int       `json:"processed"`
	Valid     int       `json:"valid"`
	JSPUI     int       `json:"jspui"`
	XMLUI     int       `json:"xmlui"`
	Invalid   int       `json:"invalid"`
	UnknownUI int       `json:"unknown_ui"`
	Errors    int       `json:"errors"`
	Started   time.Time `json:"started"`
}
