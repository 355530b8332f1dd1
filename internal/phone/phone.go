// Package phone normalizes North American phone numbers collected over the
// voice channel. Only NANP numbers are supported: callers dictate US numbers
// and the upstream calendar rejects anything else anyway.
package phone

import "strings"

// Number is a validated ten-digit North American phone number.
type Number struct {
	digits string
}

// Normalize strips every non-digit character from raw and validates the
// remainder. Exactly 10 digits is a national number; 11 digits with a
// leading 1 has the country code stripped. Any other digit count is invalid.
func Normalize(raw string) (Number, bool) {
	digits := sanitizeDigits(raw)
	switch {
	case len(digits) == 10:
		return Number{digits: digits}, true
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return Number{digits: digits[1:]}, true
	default:
		return Number{}, false
	}
}

// E164 returns the canonical dialable form, e.g. "+16572396233".
func (n Number) E164() string {
	if n.digits == "" {
		return ""
	}
	return "+1" + n.digits
}

// Dashed returns the "XXX-XXX-XXXX" form the calendar API expects in its
// responses block.
func (n Number) Dashed() string {
	if n.digits == "" {
		return ""
	}
	return n.digits[:3] + "-" + n.digits[3:6] + "-" + n.digits[6:]
}

func (n Number) String() string { return n.E164() }

func sanitizeDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
