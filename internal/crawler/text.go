package crawler

import (
	"regexp"
	"strings"

	"sjsage522/paperworker/helpers"
)

// Separator splits the metadata segments of a listing entry
const Separator = "·"

var (
	authorCountRegex   = regexp.MustCompile(`(?i)(\d+)\s+authors?`)
	authorByRegex      = regexp.MustCompile(`(?i)\bby\s+([^·\n]+)`)
	authorSegmentRegex = regexp.MustCompile(`(?i)·\s*([^·]+)\s*authors?`)
)

// ExtractAuthors finds the author description in the text around a unit.
// Patterns are tried in order: "<n> authors", "by <names>", "· <names> authors".
func ExtractAuthors(text string) string {
	if m := authorCountRegex.FindStringSubmatch(text); m != nil {
		return m[1] + " authors"
	}
	if m := authorByRegex.FindStringSubmatch(text); m != nil {
		if authors := normalizeSpace(m[1]); authors != "" {
			return authors
		}
	}
	if m := authorSegmentRegex.FindStringSubmatch(text); m != nil {
		if authors := normalizeSpace(m[1]); authors != "" {
			return authors
		}
	}
	return UnknownAuthors
}

// ElementAbstract returns the last middot segment when the text has more than two
func ElementAbstract(text string) string {
	parts := strings.Split(text, Separator)
	if len(parts) <= 2 {
		return ""
	}
	return helpers.Truncate(normalizeSpace(parts[len(parts)-1]), maxAbstractLength)
}

// LinkAbstract returns the first middot segment that is not about authors
// and is longer than ten characters
func LinkAbstract(text string) string {
	parts := strings.Split(text, Separator)
	if len(parts) <= 1 {
		return ""
	}
	for _, part := range parts {
		if strings.Contains(strings.ToLower(part), "author") {
			continue
		}
		segment := normalizeSpace(part)
		if helpers.RuneLen(segment) > minAbstractLength {
			return helpers.Truncate(segment, maxAbstractLength)
		}
	}
	return ""
}

// normalizeSpace trims s and collapses inner whitespace runs to one space
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
