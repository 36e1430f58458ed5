package match

import "strings"

// ParseScore normalizes score text such as "0 - \n 1" into "0-1".
// Placeholders like "-" and half-filled scores return false.
func ParseScore(raw string) (string, bool) {
	parts := make([]string, 0, 2)
	for _, part := range strings.Split(raw, "-") {
		part = strings.TrimSpace(part)
		if part != "" {
			parts = append(parts, part)
		}
	}

	if len(parts) != 2 {
		return "", false
	}
	return parts[0] + "-" + parts[1], true
}
