package interpreter

import (
	"strings"

	"github.com/example/swagdoc/internal/directive"
)

// DefaultMediaType is used when neither the operation nor the general info
// declares one.
const DefaultMediaType = "application/json"

var mimeAliases = map[string]string{
	"json":                  "application/json",
	"xml":                   "application/xml",
	"plain":                 "text/plain",
	"text":                  "text/plain",
	"html":                  "text/html",
	"mpfd":                  "multipart/form-data",
	"form":                  "multipart/form-data",
	"form-data":             "multipart/form-data",
	"multipart":             "multipart/form-data",
	"x-www-form-urlencoded": "application/x-www-form-urlencoded",
	"form-urlencoded":       "application/x-www-form-urlencoded",
	"urlencoded":            "application/x-www-form-urlencoded",
	"octet-stream":          "application/octet-stream",
	"binary":                "application/octet-stream",
	"json-api":              "application/vnd.api+json",
	"json-stream":           "application/x-json-stream",
	"event-stream":          "text/event-stream",
	"png":                   "image/png",
	"jpeg":                  "image/jpeg",
	"gif":                   "image/gif",
}

// NormalizeMIME expands a short media type alias.
func NormalizeMIME(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		return s
	}
	if full, ok := mimeAliases[strings.ToLower(s)]; ok {
		return full
	}
	return "application/" + strings.ToLower(s)
}

// parseMIMEList reads `json, xml` or `json xml`.
func parseMIMEList(arg string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range directive.SplitList(strings.Join(strings.Fields(arg), ",")) {
		m := NormalizeMIME(item)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
