package events

const KindDispatchResult Kind = "dispatch.result"

// DispatchResult reports the outcome of one confirmed action execution.
type DispatchResult struct {
	Base
	Action  string
	Success bool
	// Summary is the backend's human-readable outcome, if any.
	Summary string
}

func NewDispatchResult(action string, success bool, summary string) DispatchResult {
	return DispatchResult{Base: NewBase(KindDispatchResult), Action: action, Success: success, Summary: summary}
}
