// Package uri validates candidate site URLs and derives the comparison keys
// used to spot the same site listed under different spellings.
package uri

import (
	"net/url"
	"strings"
)

// IsValidHTTPURI reports whether s parses as an absolute http or https URI
// with a host.
func IsValidHTTPURI(s string) bool {
	_, ok := Parse(s)
	return ok
}

// Parse returns the parsed URL when s is a valid http(s) URI
func Parse(s string) (*url.URL, bool) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, false
	}
	if !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https") {
		return nil, false
	}
	if u.Host == "" {
		return nil, false
	}
	return u, true
}

// ComparableKey returns "host/path/" for a valid URI: the host lowercased
// without a leading "www.", the path always ending in a slash. Scheme, port,
// query and fragment are ignored. Invalid input yields "", which callers must never
// treat as a duplicate of another empty key.
func ComparableKey(s string) string {
	u, ok := Parse(s)
	if !ok {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	path := u.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	return host + path
}

// Duplicate reports whether a and b reference the same site
func Duplicate(a, b string) bool {
	ka := ComparableKey(a)
	return ka != "" && ka == ComparableKey(b)
}

// UniqueBy keeps the first item for each comparable key, preserving order.
// Items whose URL has no comparable key are always kept.
func UniqueBy[T any](items []T, rawURL func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))

	for _, item := range items {
		key := ComparableKey(rawURL(item))
		if key == "" {
			out = append(out, item)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}

	return out
}
