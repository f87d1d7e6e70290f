package intent

import "testing"

func TestClassifyGreetings(t *testing.T) {
	gate := NewGate()

	for _, utterance := range []string{"Hi", "hello there", "Hey!", "Good morning", "thanks so much"} {
		classification := gate.Classify(utterance, Context{})
		if classification.Class != ClassGreeting {
			t.Fatalf("Classify(%q) = %v, want greeting", utterance, classification.Class)
		}
		if classification.Action != "" {
			t.Fatalf("Classify(%q): greeting must not carry an action, got %q", utterance, classification.Action)
		}
	}
}

func TestClassifyActionRequests(t *testing.T) {
	gate := NewGate()

	cases := []struct {
		utterance string
		action    string
	}{
		{"I want to book an appointment", "book_appointment"},
		{"Can you schedule a call for me", "book_appointment"},
		{"I need to reschedule my appointment", "reschedule_appointment"},
		{"Please move my booking to Friday", "reschedule_appointment"},
		{"Cancel my appointment", "cancel_appointment"},
		{"Send an email to my colleague", "send_email"},
		{"Can you text me the details", "send_sms"},
		{"Send it over WhatsApp please", "send_whatsapp"},
		{"I'd like to speak to a human", ActionTransferToHuman},
		{"Goodbye", ActionEndCall},
	}

	for _, testCase := range cases {
		classification := gate.Classify(testCase.utterance, Context{})
		if classification.Class != ClassActionRequest {
			t.Fatalf("Classify(%q) = %v, want action request", testCase.utterance, classification.Class)
		}
		if classification.Action != testCase.action {
			t.Fatalf("Classify(%q) action = %q, want %q", testCase.utterance, classification.Action, testCase.action)
		}
	}
}

func TestClassifyQuestionsAboutActionsStayInformational(t *testing.T) {
	gate := NewGate()

	for _, utterance := range []string{
		"What do I need to book an appointment?",
		"How does rescheduling work?",
		"Do you charge a cancellation fee?",
		"What are your opening hours?",
	} {
		classification := gate.Classify(utterance, Context{})
		if classification.Class != ClassInformational {
			t.Fatalf("Classify(%q) = %v, want informational", utterance, classification.Class)
		}
		if classification.Action != "" {
			t.Fatalf("Classify(%q): informational must not carry an action, got %q", utterance, classification.Action)
		}
	}
}

func TestClassifyBareActionNounsAreAmbiguous(t *testing.T) {
	gate := NewGate()

	for _, utterance := range []string{"appointment", "my booking", "about the meeting"} {
		classification := gate.Classify(utterance, Context{})
		if classification.Class != ClassAmbiguous {
			t.Fatalf("Classify(%q) = %v, want ambiguous", utterance, classification.Class)
		}
	}
}

func TestClassifyEmptyUtteranceIsAmbiguous(t *testing.T) {
	gate := NewGate()

	if classification := gate.Classify("   ", Context{}); classification.Class != ClassAmbiguous {
		t.Fatalf("expected empty utterance to be ambiguous, got %v", classification.Class)
	}
}

func TestRescheduleNeverReadsAsBooking(t *testing.T) {
	gate := NewGate()

	classification := gate.Classify("I want to reschedule the appointment I booked", Context{})
	if classification.Action != "reschedule_appointment" {
		t.Fatalf("expected reschedule to win over booking, got %q", classification.Action)
	}
}

func TestWithRulesReplacesTriggers(t *testing.T) {
	gate := NewGate(WithRules([]Rule{{Action: "open_ticket", Phrases: []string{"ticket"}}}))

	classification := gate.Classify("I want to open a ticket", Context{})
	if classification.Class != ClassActionRequest || classification.Action != "open_ticket" {
		t.Fatalf("expected custom rule to classify, got %+v", classification)
	}

	if classification := gate.Classify("I want to book an appointment", Context{}); classification.Class == ClassActionRequest {
		t.Fatalf("expected built-in rules to be replaced, got %+v", classification)
	}
}
