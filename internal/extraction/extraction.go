// Package extraction pulls the bits of HTML metadata the site classifier
// relies on: generator tags, meta-refresh targets and keyword hits.
package extraction

import (
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

var refreshURLPattern = regexp.MustCompile(`(?i)URL=(.+)`)

// MetaContent returns the content attribute of the first <meta> element
// whose attr equals value, comparing both case-insensitively. Later
// matches are ignored.
func MetaContent(doc *goquery.Document, attr, value string) string {
	if doc == nil {
		return ""
	}

	var content string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, a := range s.Nodes[0].Attr {
			if strings.EqualFold(a.Key, attr) && strings.EqualFold(strings.TrimSpace(a.Val), value) {
				content, _ = s.Attr("content")
				return false
			}
		}
		return true
	})

	return content
}

// Generator returns the <meta name="generator"> content, if any
func Generator(doc *goquery.Document) string {
	return MetaContent(doc, "name", "generator")
}

// RefreshTarget returns the URL named by a <meta http-equiv="refresh">
// tag, with any quotes removed.
func RefreshTarget(doc *goquery.Document) (string, bool) {
	content := MetaContent(doc, "http-equiv", "refresh")
	if content == "" {
		return "", false
	}

	m := refreshURLPattern.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}

	target := strings.TrimSpace(strings.NewReplacer(`"`, "", `'`, "").Replace(m[1]))
	if target == "" {
		return "", false
	}
	return target, true
}

var (
	wordPatternsMu sync.Mutex
	wordPatterns   = map[string]*regexp.Regexp{}
)

func wordPattern(word string) *regexp.Regexp {
	wordPatternsMu.Lock()
	defer wordPatternsMu.Unlock()

	re, ok := wordPatterns[word]
	if !ok {
		re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		wordPatterns[word] = re
	}
	return re
}

// ContainsWord reports whether word appears in body as a whole word,
// ignoring case.
func ContainsWord(body []byte, word string) bool {
	return wordPattern(word).Match(body)
}

// ContainsWordString is ContainsWord for strings
func ContainsWordString(s, word string) bool {
	return wordPattern(word).MatchString(s)
}
