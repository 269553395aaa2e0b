package parser

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	linkOpen   = "[[page:"
	linkClose  = "]]"
	linkSep    = "|"
	slashStart = "/"
)

var (
	// [[page:<id>|<title>]]
	linkPattern = regexp.MustCompile(`\[\[page:([^|\]]+)\|([^\]]+)\]\]`)

	// trailing [[ with no closing brackets yet
	openLinkPattern = regexp.MustCompile(`\[\[([^\]]*)$`)
)

// PageLink is a parsed [[page:<id>|<title>]] token.
type PageLink struct {
	PageID string `json:"pageId"`
	Title  string `json:"title"`
}

// FormatLink renders the persisted token for a page link.
func FormatLink(pageID, title string) string {
	return linkOpen + pageID + linkSep + title + linkClose
}

// LinkPrefix is the literal text every link to pageID starts with.
// Stores use it as a cheap substring pre-filter.
func LinkPrefix(pageID string) string {
	return linkOpen + pageID + linkSep
}

// LinkPattern matches a complete link token to exactly pageID, so an id
// that is a prefix of another id never matches the longer one.
func LinkPattern(pageID string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`\[\[page:%s\|([^\]]+)\]\]`, regexp.QuoteMeta(pageID)))
}

// Links extracts all well-formed page link tokens in order of appearance.
// Partial or malformed tokens are ignored.
func Links(content string) []PageLink {
	matches := linkPattern.FindAllStringSubmatch(content, -1)
	links := make([]PageLink, 0, len(matches))
	for _, m := range matches {
		links = append(links, PageLink{PageID: m[1], Title: m[2]})
	}
	return links
}

// LinkedPageIDs returns the distinct page ids linked from content.
func LinkedPageIDs(content string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range Links(content) {
		if !seen[l.PageID] {
			out = append(out, l.PageID)
			seen[l.PageID] = true
		}
	}
	return out
}

// StripLinks replaces every link token with its display title.
func StripLinks(content string) string {
	return linkPattern.ReplaceAllString(content, "$2")
}

// SlashQuery returns the command query when content starts with "/".
func SlashQuery(content string) (string, bool) {
	if !strings.HasPrefix(content, slashStart) {
		return "", false
	}
	return content[len(slashStart):], true
}

// LinkQuery returns the text typed after a trailing, unterminated "[[".
func LinkQuery(content string) (string, bool) {
	m := openLinkPattern.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CompleteLink replaces everything from the last "[[" to the end of content
// with the link token and a trailing space. It reports false when content
// has no "[[".
func CompleteLink(content, pageID, title string) (string, bool) {
	i := strings.LastIndex(content, "[[")
	if i == -1 {
		return content, false
	}
	return content[:i] + FormatLink(pageID, title) + " ", true
}

// Preview truncates content to at most n runes.
func Preview(content string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range content {
		if count == n {
			return content[:i]
		}
		count++
	}
	return content
}
