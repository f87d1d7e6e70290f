package sanitize

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`\b([a-zA-Z0-9._%+\-]+)@([a-zA-Z0-9.\-]+\.[a-zA-Z]{2,})\b`)

// SpeakEmail renders an email address for synthesis, substituting "at" and
// "dot" for "@" and ".": "jane.doe@mail.dev" becomes "jane dot doe at mail dot dev".
func SpeakEmail(email string) string {
	match := emailPattern.FindStringSubmatch(strings.TrimSpace(email))
	if match == nil {
		return strings.NewReplacer("@", " at ", ".", " dot ").Replace(email)
	}

	local := strings.ReplaceAll(match[1], ".", " dot ")
	domain := strings.ReplaceAll(match[2], ".", " dot ")
	return local + " at " + domain
}

func expandEmails(text string) string {
	return emailPattern.ReplaceAllStringFunc(text, SpeakEmail)
}
