package schema

import (
	"strings"
	"unicode"
)

// ParseTier parses a tier name. Accepted: primary, embedded, static.
func ParseTier(value string) (Tier, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "primary":
		return TierPrimary, nil
	case "embedded":
		return TierEmbedded, nil
	case "static":
		return TierStatic, nil
	default:
		return 0, ErrInvalidTier
	}
}

// NormalizeHostPattern trims and lower-cases a URL pattern.
// Patterns may not contain whitespace.
func NormalizeHostPattern(pattern string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(pattern))
	if trimmed == "" {
		return "", ErrInvalidPattern
	}
	for _, r := range trimmed {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", ErrInvalidPattern
		}
	}
	return trimmed, nil
}
