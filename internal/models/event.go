package models

import "time"

// AlertEventType identifies the kind of notification decision.
type AlertEventType string

const (
	EventStateChange  AlertEventType = "STATE_CHANGE"
	EventPanicPersist AlertEventType = "PANIC_PERSIST"
)

// AlertEvent is a notification decision produced by the alert engine.
// The engine only decides; delivery belongs to the notifier.
type AlertEvent struct {
	ID   string
	Type AlertEventType
	From MarketState // STATE_CHANGE only
	To   MarketState // STATE_CHANGE only
	At   time.Time
}
