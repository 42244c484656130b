package postservice

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	markupPattern   = regexp.MustCompile(`<[^>]*>`)
	imageTagPattern = regexp.MustCompile(`(?i)<\s*img\b`)

	contentPolicy = newContentPolicy()
)

// newContentPolicy allows user-generated markup plus the figure and image markup the editor emits.
func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("figure", "figcaption")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("figure", "figcaption", "img", "p", "span")
	p.AllowAttrs("width", "height").Matching(bluemonday.Number).OnElements("img")
	return p
}

// sanitizeContent strips everything the content policy does not allow.
func sanitizeContent(content string) string {
	return contentPolicy.Sanitize(content)
}

// plainText strips markup and entities and collapses whitespace.
func plainText(content string) string {
	text := markupPattern.ReplaceAllString(content, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// contentIsEmpty reports whether the editor produced nothing visible.
func contentIsEmpty(content string) bool {
	return plainText(content) == "" && !imageTagPattern.MatchString(content)
}

// makeExcerpt returns the first ExcerptLength characters of the visible text.
func makeExcerpt(content string) string {
	runes := []rune(plainText(content))
	if len(runes) <= ExcerptLength {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:ExcerptLength]))
}
