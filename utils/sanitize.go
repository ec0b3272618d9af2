package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// maxSanitizePasses bounds the strip/unescape loop for entity-nested input.
const maxSanitizePasses = 4

// Sanitize strips all markup from user text and trims it. The result is plain
// text: entities produced by the policy are decoded again, and the loop
// repeats until nothing changes so that encoded tags cannot survive.
func Sanitize(input string) string {
	s := input
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(sanitizer.Sanitize(s))
		if next == s {
			return strings.TrimSpace(next)
		}
		s = next
	}
	// still changing; keep the escaped form
	return strings.TrimSpace(sanitizer.Sanitize(s))
}
