package users

import "strings"

// FormatPhone normalizes typed digits into the "+375 XX XXX-XX-XX" shape the profile form expects.
// Partial input is formatted as far as it goes.
func FormatPhone(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := strings.TrimPrefix(digits.String(), "375")
	switch {
	case n == "":
		return ""
	case len(n) <= 2:
		return "+375 " + n
	case len(n) <= 5:
		return "+375 " + n[:2] + " " + n[2:]
	case len(n) <= 7:
		return "+375 " + n[:2] + " " + n[2:5] + "-" + n[5:]
	}
	if len(n) > 9 {
		n = n[:9]
	}
	return "+375 " + n[:2] + " " + n[2:5] + "-" + n[5:7] + "-" + n[7:]
}
