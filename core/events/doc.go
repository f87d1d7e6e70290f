// Package events defines the typed session event contract.
//
// Every state transition in a dialogue session is driven by exactly one
// event from this package; there is no other way to advance a session.
// Event kinds are grouped by producer-facing namespaces:
//
//   - session.*     lifecycle boundaries delivered by the transport
//   - user_input.*  recognized speech from the caller
//   - silence.*     escalation tiers from the per-session silence monitor
//   - dispatch.*    results of confirmed action execution
//
// Semantics used across the package:
//
//   - Final: terminal, immutable transcript for an utterance. Never dropped.
//   - Partial: advisory, mutable in-progress transcript. May be dropped
//     under queue pressure.
//   - Tier: one of the fixed silence thresholds; tiers fire in order and at
//     most once per silence episode.
package events
