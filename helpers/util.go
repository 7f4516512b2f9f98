package helpers

import (
	"strings"
)

// Truncate returns at most n runes of s
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// RuneLen returns the number of runes in s
func RuneLen(s string) int {
	return len([]rune(s))
}

// ResolveURL makes site-relative hrefs absolute against origin.
// Absolute and empty hrefs are returned unchanged.
func ResolveURL(origin, href string) string {
	if strings.HasPrefix(href, "/") {
		return strings.TrimRight(origin, "/") + href
	}
	return href
}
