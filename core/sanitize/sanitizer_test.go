package sanitize

import (
	"strings"
	"testing"
)

func newTestSanitizer(t *testing.T) *Sanitizer {
	t.Helper()

	sanitizer, err := New(Policy{
		Denylist: []string{
			`\binitiate_\w+\b`,
			`\bcollect_\w+\b`,
			`\bwebhook\b`,
			`\bAPI\b`,
			`\bJSON\b`,
			`\bpayload\b`,
			`\berror\s+code\s+\d+\b`,
		},
		Fallbacks: Fallbacks{
			Generic:         "I'm here to help. What would you like to do next?",
			MissingVariable: "I'm sorry, I didn't get all of that. Could you repeat it?",
		},
	})
	if err != nil {
		t.Fatalf("expected sanitizer construction to succeed, got %v", err)
	}
	return sanitizer
}

func TestSanitizeRemovesDenylistedTokens(t *testing.T) {
	sanitizer := newTestSanitizer(t)

	inputs := []string{
		"Let me run initiate_booking for you",
		"I'll use collect_client_name to get that",
		"The webhook failed with error code 422",
		"Let me query that over the API as JSON payload",
	}

	for _, input := range inputs {
		output := sanitizer.Sanitize(input)
		for _, forbidden := range []string{"initiate_", "collect_", "webhook", "API", "JSON", "payload", "422"} {
			if strings.Contains(output, forbidden) {
				t.Fatalf("expected %q to be removed from output, got %q", forbidden, output)
			}
		}
	}
}

func TestSanitizeRemovesPlaceholderSyntax(t *testing.T) {
	sanitizer := newTestSanitizer(t)

	output := sanitizer.Sanitize("Hello [user], {client_name} is confirmed for <time>")
	for _, forbidden := range []string{"{", "}", "[", "]", "<", ">", "client_name"} {
		if strings.Contains(output, forbidden) {
			t.Fatalf("expected %q to be absent, got %q", forbidden, output)
		}
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	sanitizer := newTestSanitizer(t)

	inputs := []string{
		"Hi! How can I help you today?",
		"Your number is +2348128772405 and your email is jane.doe@mail.dev",
		"That's 50% off, or $20 per seat {when} [you] sign_up",
	}

	for _, input := range inputs {
		once := sanitizer.Sanitize(input)
		twice := sanitizer.Sanitize(once)
		if once != twice {
			t.Fatalf("expected sanitize to be a fixed point:\n once: %q\ntwice: %q", once, twice)
		}
	}
}

func TestSanitizeExpandsPhoneAndEmailInline(t *testing.T) {
	sanitizer := newTestSanitizer(t)

	output := sanitizer.Sanitize("Reach us at +2348128772405 or hello@example.com")
	if !strings.Contains(output, "plus 2, 3, 4, 8, 1, 2, 8, 7, 7, 2, 4, 0, 5") {
		t.Fatalf("expected digit-by-digit phone expansion, got %q", output)
	}
	if !strings.Contains(output, "hello at example dot com") {
		t.Fatalf("expected spelled-out email, got %q", output)
	}
}

func TestRenderSubstitutesBoundVariables(t *testing.T) {
	sanitizer := newTestSanitizer(t)

	output := sanitizer.Render("Your appointment is on {date} at {time}.", map[string]string{
		"date": "Friday",
		"time": "noon",
	})
	if output != "Your appointment is on Friday at noon." {
		t.Fatalf("expected full substitution, got %q", output)
	}
}

func TestRenderFailsClosedOnUnboundVariable(t *testing.T) {
	sanitizer := newTestSanitizer(t)

	output := sanitizer.Render("Your appointment is on {date} at {time}.", map[string]string{
		"date": "Friday",
	})
	if output != "I'm sorry, I didn't get all of that. Could you repeat it?" {
		t.Fatalf("expected fallback phrase, got %q", output)
	}
	if strings.Contains(output, "{") {
		t.Fatalf("expected no placeholder syntax in fallback, got %q", output)
	}
}

func TestNewRejectsInvalidDenylistPattern(t *testing.T) {
	if _, err := New(Policy{Denylist: []string{`[unclosed`}}); err == nil {
		t.Fatalf("expected invalid pattern to be rejected")
	}
}

func TestSpeakPhone(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"+2348128772405", "plus 2, 3, 4, 8, 1, 2, 8, 7, 7, 2, 4, 0, 5"},
		{"+1-800-555-1234", "plus 1, 8, 0, 0, 5, 5, 5, 1, 2, 3, 4"},
		{"(952) 333-8443", "9, 5, 2, 3, 3, 3, 8, 4, 4, 3"},
	}

	for _, testCase := range cases {
		if got := SpeakPhone(testCase.input); got != testCase.want {
			t.Fatalf("SpeakPhone(%q) = %q, want %q", testCase.input, got, testCase.want)
		}
	}
}

func TestSpeakEmail(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"support@callwaiting.dev", "support at callwaiting dot dev"},
		{"john.doe@company.com", "john dot doe at company dot com"},
	}

	for _, testCase := range cases {
		if got := SpeakEmail(testCase.input); got != testCase.want {
			t.Fatalf("SpeakEmail(%q) = %q, want %q", testCase.input, got, testCase.want)
		}
	}
}
