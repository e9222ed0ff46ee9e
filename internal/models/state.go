// Package models defines the core domain entities: market states, subscriber
// alert state, alert events, and sentiment readings.
package models

import (
	"fmt"
	"time"
)

// MarketState is the discrete classification of the Fear & Greed score.
type MarketState string

const (
	StatePanic        MarketState = "PANIC"
	StateExtremeFear  MarketState = "EXTREME_FEAR"
	StateNormal       MarketState = "NORMAL"
	StateExtremeGreed MarketState = "EXTREME_GREED"
)

// Valid reports whether s is one of the four known states.
func (s MarketState) Valid() bool {
	switch s {
	case StatePanic, StateExtremeFear, StateNormal, StateExtremeGreed:
		return true
	}
	return false
}

// ParseMarketState converts a stored string into a MarketState.
// Unknown values are a data-integrity error, never coerced to a default.
func ParseMarketState(s string) (MarketState, error) {
	state := MarketState(s)
	if !state.Valid() {
		return "", fmt.Errorf("unknown market state %q", s)
	}
	return state, nil
}

// SubscriberAlertState is the per-subscriber record the decision engine reads
// and rewrites each cycle. LastPanicRemindedAt is nil unless the subscriber is
// inside a persisting PANIC stretch.
type SubscriberAlertState struct {
	LastState           MarketState
	LastPanicRemindedAt *time.Time
}

// NewSubscriberAlertState returns the implicit first-contact state.
func NewSubscriberAlertState() SubscriberAlertState {
	return SubscriberAlertState{LastState: StateNormal}
}

// Subscriber is an email enrolled for sentiment alerts.
type Subscriber struct {
	Email     string
	Enabled   bool
	Alert     SubscriberAlertState
	CreatedAt time.Time
}
