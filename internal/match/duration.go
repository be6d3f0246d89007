package match

import (
	"strconv"
	"strings"
)

// ParseSeconds converts a "MM:SS" or "HH:MM:SS" duration string to seconds.
// Malformed segments count as zero; the function never fails. Bilibili search
// results carry durations in this human-readable form.
func ParseSeconds(s string) int {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		return atoiOrZero(parts[0])*60 + atoiOrZero(parts[1])
	case 3:
		return atoiOrZero(parts[0])*3600 + atoiOrZero(parts[1])*60 + atoiOrZero(parts[2])
	default:
		return 0
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
