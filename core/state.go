package dialogue

// State is the session's position in the conversation. Transitions go
// through the table in canTransition only; there is no ad hoc state.
type State int

const (
	// StateGreeting is the opening state before the greeting is spoken.
	StateGreeting State = iota + 1
	// StateListening awaits the caller's next utterance.
	StateListening
	// StateResponding is the transient state while a reply is generated.
	StateResponding
	// StateCollecting walks a slot schema through the collector.
	StateCollecting
	// StateConfirming awaits a yes/no answer to the read-back.
	StateConfirming
	// StateExecuting dispatches a confirmed action.
	StateExecuting
	// StateTransferring hands the call to a human. Terminal.
	StateTransferring
	// StateClosed is the terminal post-call state.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateGreeting:
		return "greeting"
	case StateListening:
		return "listening"
	case StateResponding:
		return "responding"
	case StateCollecting:
		return "collecting"
	case StateConfirming:
		return "confirming"
	case StateExecuting:
		return "executing"
	case StateTransferring:
		return "transferring"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Terminal reports whether no further user-facing transition is possible.
func (s State) Terminal() bool {
	return s == StateTransferring || s == StateClosed
}

// canTransition is the session's transition table. Transferring and Closed
// are reachable from every live state; Closed is additionally reachable from
// Transferring so teardown can complete after a handoff.
func canTransition(from, to State) bool {
	if from == StateClosed {
		return false
	}
	if to == StateClosed {
		return true
	}
	if from == StateTransferring {
		return false
	}
	if to == StateTransferring {
		return true
	}

	switch from {
	case StateGreeting:
		return to == StateListening
	case StateListening:
		return to == StateResponding || to == StateCollecting
	case StateResponding:
		return to == StateListening
	case StateCollecting:
		return to == StateConfirming || to == StateListening
	case StateConfirming:
		return to == StateExecuting || to == StateCollecting || to == StateConfirming
	case StateExecuting:
		return to == StateListening
	}
	return false
}
