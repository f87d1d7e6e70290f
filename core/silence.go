package dialogue

import (
	"time"

	"github.com/odiadev/ruthie-core/core/events"
)

// defaultSilenceThresholds are measured from the last user-speech event:
// check in, reassure, then hand off to a human.
var defaultSilenceThresholds = []time.Duration{
	6 * time.Second,
	12 * time.Second,
	18 * time.Second,
}

// silenceMonitor is the session's resettable countdown over the escalation
// tiers. It only emits events; the session decides outcomes. The countdown
// runs only while the session is awaiting user input, and at most one tier
// is pending at a time.
type silenceMonitor struct {
	thresholds []time.Duration
	onTier     func(tier events.Tier)

	control chan monitorCommand
	done    chan struct{}
}

type monitorCommand int

const (
	monitorReset monitorCommand = iota + 1
	monitorPause
	monitorStop
)

func newSilenceMonitor(thresholds []time.Duration, onTier func(events.Tier)) *silenceMonitor {
	if len(thresholds) == 0 {
		thresholds = defaultSilenceThresholds
	}
	m := &silenceMonitor{
		thresholds: thresholds,
		onTier:     onTier,
		control:    make(chan monitorCommand),
		done:       make(chan struct{}),
	}
	go m.run()
	return m
}

// Reset restarts the countdown from zero. Called on any user-speech event
// and whenever the session returns to awaiting input.
func (m *silenceMonitor) Reset() { m.send(monitorReset) }

// Pause suspends the countdown while a turn is being processed or spoken.
func (m *silenceMonitor) Pause() { m.send(monitorPause) }

// Close stops the monitor permanently. Must be called on session teardown
// so no tier callback fires into a dead session.
func (m *silenceMonitor) Close() {
	m.send(monitorStop)
	<-m.done
}

func (m *silenceMonitor) send(cmd monitorCommand) {
	select {
	case m.control <- cmd:
	case <-m.done:
	}
}

func (m *silenceMonitor) run() {
	defer close(m.done)

	timer := time.NewTimer(m.thresholds[0])
	defer timer.Stop()
	// The monitor starts paused; the first Reset arms it.
	if !timer.Stop() {
		<-timer.C
	}

	tier := 0
	running := false
	for {
		var timerC <-chan time.Time
		if running {
			timerC = timer.C
		}

		select {
		case cmd := <-m.control:
			if running && !timer.Stop() {
				<-timer.C
			}
			running = false

			switch cmd {
			case monitorReset:
				tier = 0
				timer.Reset(m.thresholds[0])
				running = true
			case monitorPause:
			case monitorStop:
				return
			}

		case <-timerC:
			running = false
			m.onTier(events.Tier(tier + 1))
			tier++
			if tier < len(m.thresholds) {
				timer.Reset(m.thresholds[tier] - m.thresholds[tier-1])
				running = true
			}
		}
	}
}
