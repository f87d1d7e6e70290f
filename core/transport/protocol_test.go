package transport

import "testing"

func TestDecodeRoundTrip(t *testing.T) {
	frames := []Frame{
		{Event: EventTranscript, Text: "hello there", Final: true},
		{Event: EventMedia, Audio: "AAECAw=="},
	}
	for _, original := range frames {
		data, err := Encode(original)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		decoded, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if decoded != original {
			t.Fatalf("round trip mismatch: %+v != %+v", decoded, original)
		}
	}
}

func TestDecodeRejectsUnknownEvents(t *testing.T) {
	if _, err := Decode([]byte(`{"event": "ring"}`)); err == nil {
		t.Fatal("expected unknown events to be rejected")
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	if _, err := Decode([]byte(`{"event": `)); err == nil {
		t.Fatal("expected malformed frames to be rejected")
	}
}
