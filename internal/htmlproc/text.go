package htmlproc

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const Ellipsis = "..."

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags removes anything between angle brackets. Entities are left as
// they are.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// Truncate cuts s to at most n characters (code points) and reports whether
// anything was cut.
func Truncate(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	return string([]rune(s)[:n]), true
}

// Excerpt returns the tag-stripped, trimmed text of src, cut to max
// characters with Ellipsis appended when something was cut.
func Excerpt(src string, max int) string {
	text := strings.TrimSpace(StripTags(src))
	if cut, truncated := Truncate(text, max); truncated {
		return cut + Ellipsis
	}
	return text
}

// PlainPrefix returns the first n characters of the tag-stripped, trimmed
// text of src, without an ellipsis. Used for meta descriptions.
func PlainPrefix(src string, n int) string {
	cut, _ := Truncate(strings.TrimSpace(StripTags(src)), n)
	return cut
}

// Sanitizer strips unsafe markup from CMS HTML before it is rendered. A nil
// *Sanitizer passes content through unchanged.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

func (s *Sanitizer) Sanitize(src string) string {
	if s == nil {
		return src
	}
	return s.policy.Sanitize(src)
}
