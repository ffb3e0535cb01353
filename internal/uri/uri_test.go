package uri_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/williampepple1/dspace-site-finder/internal/uri"
)

func TestIsValidHTTPURI(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "http", input: "http://example.org", want: true},
		{name: "https with path", input: "https://repo.example.edu/xmlui/", want: true},
		{name: "upper case scheme", input: "HTTP://example.org/", want: true},
		{name: "plain words", input: "not a url", want: false},
		{name: "ftp scheme", input: "ftp://x", want: false},
		{name: "empty", input: "", want: false},
		{name: "no host", input: "http://", want: false},
		{name: "relative", input: "/jspui/", want: false},
		{name: "bad escape", input: "http://example.org/%zz", want: false},
		{name: "space in host", input: "http://exa mple.org/", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, uri.IsValidHTTPURI(tc.input))
		})
	}
}

func TestComparableKey_IgnoresSchemeAndWWW(t *testing.T) {
	t.Parallel()

	a := uri.ComparableKey("http://www.example.org/x")
	b := uri.ComparableKey("http://example.org/x/")
	c := uri.ComparableKey("https://example.org/x")

	assert.Equal(t, "example.org/x/", a)
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)

	assert.Equal(t, a, uri.ComparableKey("http://example.org:80/x"))
	assert.Equal(t, "example.org/", uri.ComparableKey("http://WWW.EXAMPLE.org:8080/"))
	assert.True(t, uri.Duplicate("http://example.org:80/x", "http://example.org/x"))
}

func TestComparableKey_Normalization(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.org/", uri.ComparableKey("http://Example.ORG"))
	assert.Equal(t, "example.org/", uri.ComparableKey("http://example.org?page=2#top"))
	assert.Equal(t, "example.org/XMLUI/", uri.ComparableKey("http://example.org/XMLUI"))
	assert.Equal(t, "repo.www.example.org/", uri.ComparableKey("http://repo.www.example.org/"))
}

func TestComparableKey_InvalidIsEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, uri.ComparableKey("not-a-uri"))
	assert.Empty(t, uri.ComparableKey(""))
}

func TestDuplicate(t *testing.T) {
	t.Parallel()

	assert.True(t, uri.Duplicate("http://www.example.org/x", "https://example.org/x/"))
	assert.False(t, uri.Duplicate("http://example.org/x", "http://example.org/y"))
	assert.False(t, uri.Duplicate("not-a-uri", "also not a uri"))
	assert.False(t, uri.Duplicate("", ""))
}

func TestUniqueBy_KeepsInvalidEntries(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"a", "http://www.example.org/"},
		{"b", "junk"},
		{"c", "https://example.org"},
		{"d", "more junk"},
		{"e", "http://other.example.org/"},
	}

	got := uri.UniqueBy(rows, func(r []string) string { return r[1] })

	var sources []string
	for _, r := range got {
		sources = append(sources, r[0])
	}
	assert.Equal(t, []string{"a", "b", "d", "e"}, sources)
}
