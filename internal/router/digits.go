package router

import "strings"

// NormalizeDigits maps Arabic-Indic and extended Arabic-Indic digits onto
// their Latin equivalents so "٣" and "3" dispatch identically.
func NormalizeDigits(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= '٠' && r <= '٩': // U+0660..U+0669
			b.WriteRune('0' + (r - '٠'))
		case r >= '۰' && r <= '۹': // U+06F0..U+06F9
			b.WriteRune('0' + (r - '۰'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SingleDigit returns the message as a semantic digit ("0".."9") when the
// trimmed, normalized input is exactly one digit; otherwise "".
func SingleDigit(text string) string {
	trimmed := strings.TrimSpace(NormalizeDigits(text))
	if len(trimmed) == 1 && trimmed[0] >= '0' && trimmed[0] <= '9' {
		return trimmed
	}
	return ""
}
