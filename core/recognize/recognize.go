// Package recognize defines the live-transcription boundary. A recognizer
// turns caller audio into the speech events the session consumes; it knows
// nothing about dialogue state.
package recognize

import "context"

// Callbacks receive recognition events for one call. Unset callbacks are
// skipped; implementations may use them to decide which engine features to
// enable.
type Callbacks struct {
	// OnSpeechStarted fires as soon as the caller is heard, before any
	// transcript exists. Drives barge-in.
	OnSpeechStarted func()
	// OnPartial receives advisory in-progress transcripts.
	OnPartial func(text string)
	// OnFinal receives the terminal transcript for one utterance.
	OnFinal func(text string)
}

// Recognizer streams caller audio into transcript callbacks.
type Recognizer interface {
	// Start opens the recognition stream. Callbacks fire until Close.
	Start(ctx context.Context, callbacks Callbacks) error
	// SendAudio forwards one chunk of caller audio.
	SendAudio(audio []byte) error
	// Close tears the stream down and flushes any pending transcript.
	Close(ctx context.Context) error
}
