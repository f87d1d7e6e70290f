package dialogue

import (
	"testing"
	"time"

	"github.com/odiadev/ruthie-core/core/events"
)

func shortThresholds() []time.Duration {
	return []time.Duration{30 * time.Millisecond, 60 * time.Millisecond, 90 * time.Millisecond}
}

func collectTiers(t *testing.T, tiers <-chan events.Tier, want int, timeout time.Duration) []events.Tier {
	t.Helper()
	got := []events.Tier{}
	deadline := time.After(timeout)
	for len(got) < want {
		select {
		case tier := <-tiers:
			got = append(got, tier)
		case <-deadline:
			t.Fatalf("timed out waiting for tier %d, got %v", want, got)
		}
	}
	return got
}

func TestSilenceMonitorEscalatesInOrder(t *testing.T) {
	tiers := make(chan events.Tier, 3)
	monitor := newSilenceMonitor(shortThresholds(), func(tier events.Tier) { tiers <- tier })
	defer monitor.Close()

	monitor.Reset()
	got := collectTiers(t, tiers, 3, time.Second)
	want := []events.Tier{events.TierCheckIn, events.TierReassure, events.TierTransfer}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tier %d = %v, want %v", i, got[i], want[i])
		}
	}

	// The final tier is terminal until the next reset.
	select {
	case tier := <-tiers:
		t.Fatalf("unexpected tier %v after the transfer tier", tier)
	case <-time.After(120 * time.Millisecond):
	}
}

func TestSilenceMonitorResetRestartsFromZero(t *testing.T) {
	tiers := make(chan events.Tier, 8)
	monitor := newSilenceMonitor(shortThresholds(), func(tier events.Tier) { tiers <- tier })
	defer monitor.Close()

	monitor.Reset()
	collectTiers(t, tiers, 1, time.Second)

	monitor.Reset()
	got := collectTiers(t, tiers, 1, time.Second)
	if got[0] != events.TierCheckIn {
		t.Fatalf("expected the countdown to restart at check-in, got %v", got[0])
	}
}

func TestSilenceMonitorStartsPaused(t *testing.T) {
	tiers := make(chan events.Tier, 3)
	monitor := newSilenceMonitor(shortThresholds(), func(tier events.Tier) { tiers <- tier })
	defer monitor.Close()

	select {
	case tier := <-tiers:
		t.Fatalf("unexpected tier %v before the first reset", tier)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSilenceMonitorPauseStopsCountdown(t *testing.T) {
	tiers := make(chan events.Tier, 3)
	monitor := newSilenceMonitor(shortThresholds(), func(tier events.Tier) { tiers <- tier })
	defer monitor.Close()

	monitor.Reset()
	monitor.Pause()

	select {
	case tier := <-tiers:
		t.Fatalf("unexpected tier %v while paused", tier)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSilenceMonitorCloseIsIdempotentAndFinal(t *testing.T) {
	tiers := make(chan events.Tier, 3)
	monitor := newSilenceMonitor(shortThresholds(), func(tier events.Tier) { tiers <- tier })

	monitor.Reset()
	monitor.Close()
	monitor.Close()
	monitor.Reset()

	select {
	case tier := <-tiers:
		t.Fatalf("unexpected tier %v after close", tier)
	case <-time.After(100 * time.Millisecond):
	}
}
