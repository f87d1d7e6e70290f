package events

import "testing"

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "session started", event: NewSessionStarted("+15550100"), expected: KindSessionStarted},
		{name: "session ended", event: NewSessionEnded("hangup"), expected: KindSessionEnded},
		{name: "user speech started", event: NewUserSpeechStarted(), expected: KindUserSpeechStarted},
		{name: "transcript partial", event: NewTranscriptPartial("hel"), expected: KindTranscriptPartial},
		{name: "transcript final", event: NewTranscriptFinal("hello"), expected: KindTranscriptFinal},
		{name: "silence tier", event: NewSilenceTier(TierCheckIn), expected: KindSilenceTier},
		{name: "dispatch result", event: NewDispatchResult("booking", true, "booked"), expected: KindDispatchResult},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected constructor to stamp the event")
			}
		})
	}
}

func TestSilenceTiersAreOrdered(t *testing.T) {
	if !(TierCheckIn < TierReassure && TierReassure < TierTransfer) {
		t.Fatalf("expected tiers to be ordered check-in < reassure < transfer")
	}
}
