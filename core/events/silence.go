package events

const KindSilenceTier Kind = "silence.tier"

// Tier is one of the silence escalation thresholds, in firing order.
type Tier int

const (
	// TierCheckIn asks whether the caller is still there.
	TierCheckIn Tier = iota + 1
	// TierReassure tells the caller to take their time.
	TierReassure
	// TierTransfer means the silence is long enough to hand off the call.
	TierTransfer
)

func (t Tier) String() string {
	switch t {
	case TierCheckIn:
		return "check_in"
	case TierReassure:
		return "reassure"
	case TierTransfer:
		return "transfer"
	}
	return "unknown"
}

// SilenceTier is emitted by the silence monitor when a threshold elapses
// without user speech. The session decides the outcome.
type SilenceTier struct {
	Base
	Tier Tier
}

func NewSilenceTier(tier Tier) SilenceTier {
	return SilenceTier{Base: NewBase(KindSilenceTier), Tier: tier}
}
