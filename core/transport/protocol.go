// Package transport defines the wire contract between the call bridge and
// the orchestration core. The telephony side delivers call lifecycle and
// transcript frames; the core answers with speech and call-control frames.
// Frames are single JSON objects discriminated by their event field.
package transport

import (
	"encoding/json"
	"fmt"
)

// Inbound events, telephony side to core.
const (
	// EventStart opens a call. Must be the first frame on a connection.
	EventStart = "start"
	// EventSpeechStarted fires when the caller starts speaking.
	EventSpeechStarted = "speech_started"
	// EventMedia carries a chunk of raw caller audio, for bridges that
	// stream audio instead of transcripts.
	EventMedia = "media"
	// EventTranscript carries a partial or final transcript.
	EventTranscript = "transcript"
	// EventStop ends a call.
	EventStop = "stop"
)

// Outbound events, core to telephony side.
const (
	// EventSpeak asks the telephony side to synthesize sanitized text.
	EventSpeak = "speak"
	// EventClear interrupts in-flight synthesis.
	EventClear = "clear"
	// EventTransfer hands the call to a human.
	EventTransfer = "transfer"
	// EventHangup ends the call from the core's side.
	EventHangup = "hangup"
)

// Frame is one protocol message in either direction. Only the fields
// relevant to the event are set.
type Frame struct {
	Event string `json:"event"`

	// CallSID and Caller accompany EventStart.
	CallSID string `json:"call_sid,omitempty"`
	Caller  string `json:"caller,omitempty"`

	// Text carries transcript input or speech output.
	Text string `json:"text,omitempty"`
	// Final marks a transcript as terminal.
	Final bool `json:"final,omitempty"`

	// Audio is the base64 payload accompanying EventMedia.
	Audio string `json:"audio,omitempty"`

	// Reason accompanies EventStop.
	Reason string `json:"reason,omitempty"`
}

var knownEvents = map[string]bool{
	EventStart: true, EventSpeechStarted: true, EventMedia: true, EventTranscript: true, EventStop: true,
	EventSpeak: true, EventClear: true, EventTransfer: true, EventHangup: true,
}

// Decode parses and validates one frame.
func Decode(data []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Frame{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	if !knownEvents[frame.Event] {
		return Frame{}, fmt.Errorf("unknown frame event %q", frame.Event)
	}
	return frame, nil
}

// Encode serializes one frame.
func Encode(frame Frame) ([]byte, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return data, nil
}
