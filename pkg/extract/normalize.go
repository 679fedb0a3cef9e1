package extract

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Organizational suffixes stripped from entity names, applied in order.
// Names may end in compound suffixes, so every pattern runs even after
// an earlier one matched.
var companySuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+inc\.?$`),
	regexp.MustCompile(`(?i)\s+incorporated$`),
	regexp.MustCompile(`(?i)\s+corp\.?$`),
	regexp.MustCompile(`(?i)\s+corporation$`),
	regexp.MustCompile(`(?i)\s+ltd\.?$`),
	regexp.MustCompile(`(?i)\s+limited$`),
	regexp.MustCompile(`(?i)\s+llc\.?$`),
	regexp.MustCompile(`(?i)\s+co\.?$`),
	regexp.MustCompile(`(?i)\s+company$`),
	regexp.MustCompile(`(?i)\s+plc\.?$`),
	regexp.MustCompile(`(?i)\s+gmbh$`),
	regexp.MustCompile(`(?i)\s+ag$`),
}

// NormalizeEntityName canonicalizes an entity name so graph lookups are
// insensitive to surface-form variation: lowercased, whitespace collapsed,
// organizational suffixes (Inc., Corp., Ltd., ...) removed.
//
// The function is total and idempotent; empty or whitespace-only input
// yields the empty string.
func NormalizeEntityName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return ""
	}

	normalized = whitespaceRun.ReplaceAllString(normalized, " ")

	for _, suffix := range companySuffixes {
		normalized = suffix.ReplaceAllString(normalized, "")
	}

	return strings.TrimSpace(normalized)
}
