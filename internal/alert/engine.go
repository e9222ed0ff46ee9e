package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CunXin1/fearwatch/internal/models"
)

// DefaultPanicRemindAfter is how long a PANIC stretch must persist after the
// last reminder before another PANIC_PERSIST fires. Elapsed wall-clock
// duration, not calendar days.
const DefaultPanicRemindAfter = 48 * time.Hour

// Engine computes notification decisions for one subscriber at a time.
type Engine struct {
	panicRemindAfter time.Duration
}

// NewEngine creates an engine. A non-positive remindAfter falls back to
// DefaultPanicRemindAfter.
func NewEngine(remindAfter time.Duration) *Engine {
	if remindAfter <= 0 {
		remindAfter = DefaultPanicRemindAfter
	}
	return &Engine{panicRemindAfter: remindAfter}
}

// Decide compares the freshly classified market state against the
// subscriber's persisted state and returns the events to dispatch plus the
// updated state for the caller to persist.
//
// A state change emits exactly one STATE_CHANGE event and nothing else that
// cycle; the panic reminder clock is only consulted on cycles where the state
// did not move. Leaving PANIC clears the reminder timestamp in the same
// update. Decide never mutates its input, so calling it twice with the same
// arguments yields the same events.
func (e *Engine) Decide(state models.SubscriberAlertState, next models.MarketState, now time.Time) ([]models.AlertEvent, models.SubscriberAlertState, error) {
	if !state.LastState.Valid() {
		return nil, state, fmt.Errorf("corrupt subscriber state: unknown last state %q", state.LastState)
	}
	if !next.Valid() {
		return nil, state, fmt.Errorf("unknown market state %q", next)
	}

	if next != state.LastState {
		ev := models.AlertEvent{
			ID:   uuid.New().String(),
			Type: models.EventStateChange,
			From: state.LastState,
			To:   next,
			At:   now,
		}
		if state.LastState == models.StatePanic {
			state.LastPanicRemindedAt = nil
		}
		state.LastState = next
		return []models.AlertEvent{ev}, state, nil
	}

	if next == models.StatePanic {
		last := state.LastPanicRemindedAt
		if last == nil || now.Sub(*last) >= e.panicRemindAfter {
			ev := models.AlertEvent{
				ID:   uuid.New().String(),
				Type: models.EventPanicPersist,
				At:   now,
			}
			reminded := now
			state.LastPanicRemindedAt = &reminded
			return []models.AlertEvent{ev}, state, nil
		}
	}

	return nil, state, nil
}
