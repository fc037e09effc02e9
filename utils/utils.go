package utils

import (
	"strconv"
	"strings"
)

// UrlQuery encodes a free-text query for a marketplace search URL.
func UrlQuery(s string) string { return strings.ReplaceAll(strings.TrimSpace(s), " ", "+") }

// AbsoluteURL rewrites a relative href against the site base URL.
func AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimSuffix(base, "/") + href
}

// ParsePrice pulls the first numeric amount out of a display price such as
// "$12.99", "US$1.20-3.50 / piece" or "1,299". The bool reports whether a
// number was found at all.
func ParsePrice(display string) (float64, bool) {
	var b strings.Builder
	seen := false
	for _, r := range display {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			seen = true
		case r == '.' && seen:
			b.WriteRune(r)
		case r == ',':
			// thousands separator
		default:
			if seen {
				goto done
			}
		}
	}
done:
	if !seen {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(b.String(), "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Truncate shortens s to at most n runes for log lines.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
