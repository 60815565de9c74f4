package registry

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Menu labels are rendered as markup by HTML shells, so they are cleaned
// once at registration. Terminal shells use the plain-text form.
var (
	htmlPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// SanitizeLabel strips unsafe markup from an HTML label.
func SanitizeLabel(label string) string {
	return strings.TrimSpace(htmlPolicy.Sanitize(label))
}

// PlainLabel strips all markup and decodes entities.
func PlainLabel(label string) string {
	return strings.Join(strings.Fields(html.UnescapeString(plainPolicy.Sanitize(label))), " ")
}
