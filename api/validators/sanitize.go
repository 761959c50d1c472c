package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the byte length.
// Used on free-text fields like safe names before they reach a service.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
