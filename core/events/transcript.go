package events

const (
	KindUserSpeechStarted Kind = "user_input.speech_started"
	KindTranscriptPartial Kind = "user_input.transcript_partial"
	KindTranscriptFinal   Kind = "user_input.transcript_final"
)

// UserSpeechStarted fires as soon as the recognizer detects the caller
// speaking, before any transcript exists. It drives barge-in.
type UserSpeechStarted struct {
	Base
}

func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

// TranscriptPartial is an advisory in-progress transcript.
type TranscriptPartial struct {
	Base
	Text string
}

func NewTranscriptPartial(text string) TranscriptPartial {
	return TranscriptPartial{Base: NewBase(KindTranscriptPartial), Text: text}
}

// TranscriptFinal is the terminal transcript for one utterance.
type TranscriptFinal struct {
	Base
	Text string
}

func NewTranscriptFinal(text string) TranscriptFinal {
	return TranscriptFinal{Base: NewBase(KindTranscriptFinal), Text: text}
}
