package httpds

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/zeebo/xxh3"
)

// filenameCleaner matches runs of characters that are not safe in a
// file or table name.
var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// HashString returns a stable 16-digit hex digest of s.
func HashString(s string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(s))
}

// SafeFilenameFromURL derives a name from a URL's query, e.g.
// "https://host/?report=sales&year=2024" -> "report_sales_year_2024". URLs
// that do not parse or have no query are named after their hash.
func SafeFilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "u" + HashString(rawURL)
	}
	clean := strings.Trim(filenameCleaner.ReplaceAllString(u.RawQuery, "_"), "_")
	if clean == "" {
		return "u" + HashString(rawURL)
	}
	return clean
}
