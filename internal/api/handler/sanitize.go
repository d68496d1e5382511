package handler

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips all markup from user-supplied free text.
var textPolicy = bluemonday.StrictPolicy()

// cleanText removes markup and surrounding whitespace. Entities produced by
// the sanitizer are decoded so the stored value is plain text.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
