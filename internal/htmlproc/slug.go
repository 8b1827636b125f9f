// Package htmlproc turns CMS rich-text HTML into presentation HTML: heading
// anchors, table of contents, plain-text excerpts.
package htmlproc

import (
	"regexp"
	"strings"
)

var (
	// \s in RE2 is ASCII only, so Unicode spaces (NBSP from &nbsp; in rich
	// text, ideographic space) are listed explicitly.
	nonSlugChars = regexp.MustCompile(`[^\w\s\p{Z}\x{0B}\x{FEFF}-]`)
	separators   = regexp.MustCompile(`[\s\p{Z}\x{0B}\x{FEFF}_-]+`)
	edgeHyphens  = regexp.MustCompile(`^-+|-+$`)
)

// Slugify converts text into a lowercase, hyphen-delimited token made of
// [a-z0-9-]. Characters outside that set are dropped, not transliterated.
// The result is not unique; see InjectHeadingAnchors.
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	return edgeHyphens.ReplaceAllString(s, "")
}
