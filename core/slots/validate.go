package slots

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/odiadev/ruthie-core/core/sanitize"
)

var emailShapePattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// DefaultCountryCode completes bare local numbers into E.164 form.
var DefaultCountryCode = "234"

// validateField normalizes and validates raw input for one field. The
// returned reason is natural language, safe to fold into a re-ask prompt.
func validateField(field Field, raw string) (value string, reason string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "I didn't catch that.", false
	}

	switch field.Kind {
	case KindEmail:
		return validateEmail(raw)
	case KindPhone:
		return validatePhone(raw)
	case KindDate:
		return validateDate(raw)
	case KindTime:
		return validateTime(raw)
	default:
		return raw, "", true
	}
}

func validateEmail(raw string) (string, string, bool) {
	candidate := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(raw), "."))
	candidate = strings.ReplaceAll(candidate, " at ", "@")
	candidate = strings.ReplaceAll(candidate, " dot ", ".")
	candidate = strings.ReplaceAll(candidate, " ", "")

	if !emailShapePattern.MatchString(candidate) {
		return "", "That doesn't sound like a complete email address.", false
	}
	return candidate, "", true
}

func validatePhone(raw string) (string, string, bool) {
	normalized := sanitize.NormalizePhone(raw)

	if !strings.HasPrefix(normalized, "+") {
		switch {
		// Local numbers led by 0, e.g. 08128772405, lose the 0 and gain the
		// default country code.
		case len(normalized) == 11 && strings.HasPrefix(normalized, "0"):
			normalized = "+" + DefaultCountryCode + normalized[1:]
		case len(normalized) == 10:
			normalized = "+" + DefaultCountryCode + normalized
		default:
			return "", "Please include the country code, like plus 2 3 4.", false
		}
	}

	digits := normalized[1:]
	if digits == "" || strings.ContainsFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) {
		return "", "That phone number has characters I can't use.", false
	}
	if len(digits) < 10 || len(digits) > 15 {
		return "", "That phone number doesn't have the right number of digits.", false
	}

	return normalized, "", true
}

func validateDate(raw string) (string, string, bool) {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return "", "I need the date as year, month, and day.", false
	}
	return parsed.Format("2006-01-02"), "", true
}

func validateTime(raw string) (string, string, bool) {
	candidate := strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "3:04 PM", "3:04PM", "3 04 PM", "15 04", "3 PM", "3PM"} {
		if parsed, err := time.Parse(layout, strings.ToUpper(candidate)); err == nil {
			return parsed.Format("15:04"), "", true
		}
	}
	// The coached example parses under the layouts above.
	return "", "I need a time of day, like 2 30 PM.", false
}

// spokenValue formats a validated value for read-back.
func spokenValue(kind FieldKind, value string) string {
	switch kind {
	case KindPhone:
		return sanitize.SpeakPhone(value)
	case KindEmail:
		return sanitize.SpeakEmail(value)
	default:
		return value
	}
}

func retryPrompt(field Field, reason string) string {
	if field.RetryPrompt == "" {
		return fmt.Sprintf("%s %s", reason, field.Prompt)
	}
	if strings.Contains(field.RetryPrompt, "{reason}") {
		return strings.ReplaceAll(field.RetryPrompt, "{reason}", reason)
	}
	return field.RetryPrompt
}
