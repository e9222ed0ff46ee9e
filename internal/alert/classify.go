// Package alert classifies the daily Fear & Greed score and decides which
// notifications each subscriber should receive. Both pieces are pure; the
// caller owns persistence and delivery.
package alert

import "github.com/CunXin1/fearwatch/internal/models"

// Classify maps a Fear & Greed score to a market state.
// Thresholds: <10 PANIC, [10,25) EXTREME_FEAR, (75,∞) EXTREME_GREED,
// everything else NORMAL. The score is not validated or clamped.
func Classify(score float64) models.MarketState {
	switch {
	case score < 10:
		return models.StatePanic
	case score < 25:
		return models.StateExtremeFear
	case score > 75:
		return models.StateExtremeGreed
	default:
		return models.StateNormal
	}
}
