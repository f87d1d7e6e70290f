package sanitize

import (
	"regexp"
	"strings"
)

var (
	nonDigitPattern = regexp.MustCompile(`\D`)

	// Digit runs long enough to be phone numbers, optionally led by "+" and
	// broken by common formatting. Shorter runs (years, times, quantities)
	// are left for the synthesizer to read naturally.
	phonePattern = regexp.MustCompile(`\+?\d[\d\-.() ]{8,}\d`)
)

// NormalizePhone strips formatting from a phone number, keeping a leading "+".
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return "+" + nonDigitPattern.ReplaceAllString(phone[1:], "")
	}
	return nonDigitPattern.ReplaceAllString(phone, "")
}

// SpeakPhone renders a phone number digit by digit for synthesis, with a
// leading "+" spoken as "plus": "+234812" becomes "plus 2, 3, 4, 8, 1, 2".
func SpeakPhone(phone string) string {
	normalized := NormalizePhone(phone)

	prefix := ""
	if strings.HasPrefix(normalized, "+") {
		prefix = "plus "
		normalized = normalized[1:]
	}

	digits := make([]string, 0, len(normalized))
	for _, digit := range normalized {
		digits = append(digits, string(digit))
	}

	return prefix + strings.Join(digits, ", ")
}

func expandPhoneNumbers(text string) string {
	return phonePattern.ReplaceAllStringFunc(text, func(match string) string {
		digits := NormalizePhone(match)
		if strings.HasPrefix(digits, "+") {
			digits = digits[1:]
		}
		// Shorter runs are things like ISO dates, not dialable numbers.
		if len(digits) < 10 || len(digits) > 15 {
			return match
		}
		return SpeakPhone(match)
	})
}
