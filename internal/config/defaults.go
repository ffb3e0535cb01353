package config

import (
	"errors"
	"time"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DefaultMaxRedirects     = 6
	DefaultTimeout          = 7 * time.Second
	DefaultFallbackEncoding = "windows-1251"
)

// Discovery source names, as used in discovery.sources
const (
	SourceOpenDOAR = "opendoar"
	SourceROAR     = "roar"
)

// DefaultROARSets are the ROAR OAI-PMH sets for "software=dspace" and
// "software=openrepo" (hex-encoded set specs from ListSets).
var DefaultROARSets = []string{
	"736F6674776172653D647370616365",
	"736F6674776172653D6F70656E7265706F",
}

// DefaultUserAgents provides a list of common user agents
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
}
