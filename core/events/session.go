package events

const (
	KindSessionStarted Kind = "session.started"
	KindSessionEnded   Kind = "session.ended"
)

// SessionStarted marks the beginning of a call for one session.
type SessionStarted struct {
	Base
	// CallerID is the caller's line identity as the transport reports it.
	CallerID string
}

func NewSessionStarted(callerID string) SessionStarted {
	return SessionStarted{Base: NewBase(KindSessionStarted), CallerID: callerID}
}

// SessionEnded marks the end of a call. After it is processed no further
// events reach the session.
type SessionEnded struct {
	Base
	// Reason is a short machine-readable cause, e.g. "hangup" or "transfer".
	Reason string
}

func NewSessionEnded(reason string) SessionEnded {
	return SessionEnded{Base: NewBase(KindSessionEnded), Reason: reason}
}
