package dialogue

import (
	"sync"
	"time"

	"github.com/odiadev/ruthie-core/core/generate"
)

const defaultMaxTurns = 40

// Turn is one utterance in the session's history, caller or agent.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

type Role string

const (
	RoleCaller Role = "caller"
	RoleAgent  Role = "agent"
)

// turnHistory is the session's ordered, bounded turn record. Only the
// session's own loop appends; snapshots may be taken from other goroutines.
type turnHistory struct {
	mu       sync.Mutex
	turns    []Turn
	maxTurns int
}

func newTurnHistory(maxTurns int) *turnHistory {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &turnHistory{maxTurns: maxTurns}
}

func (h *turnHistory) Add(role Role, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, Turn{Role: role, Text: text, At: time.Now()})
	if len(h.turns) > h.maxTurns {
		h.turns = h.turns[len(h.turns)-h.maxTurns:]
	}
}

// Snapshot returns a copy of the recorded turns.
func (h *turnHistory) Snapshot() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	turns := make([]Turn, len(h.turns))
	copy(turns, h.turns)
	return turns
}

// generatorTurns converts the history into the generator's turn shape.
func (h *turnHistory) generatorTurns() []generate.Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	turns := make([]generate.Turn, 0, len(h.turns))
	for _, turn := range h.turns {
		role := generate.RoleUser
		if turn.Role == RoleAgent {
			role = generate.RoleAssistant
		}
		turns = append(turns, generate.Turn{Role: role, Text: turn.Text})
	}
	return turns
}
