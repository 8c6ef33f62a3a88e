package respond

import (
	"regexp"
	"strings"
)

var (
	boldRe    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe  = regexp.MustCompile(`(^|[^*])\*([^*]+)\*`)
	headingRe = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	linkRe    = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	codeRe    = regexp.MustCompile("`([^`]*)`")
)

// FormatReply strips the markdown decorations models emit despite
// plain-text instructions. Content is preserved, markup dropped.
func FormatReply(text string) string {
	out := boldRe.ReplaceAllString(text, "$1")
	out = italicRe.ReplaceAllString(out, "$1$2")
	out = headingRe.ReplaceAllString(out, "")
	out = linkRe.ReplaceAllString(out, "$1")
	out = codeRe.ReplaceAllString(out, "$1")
	return strings.TrimSpace(out)
}
