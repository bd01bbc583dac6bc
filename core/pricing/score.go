package pricing

import (
	"math"

	"github.com/kilianp07/spos/core/model"
)

// Price multipliers applied by popularity band.
const (
	decreaseFactor = 0.9
	increaseFactor = 1.1

	lowScore  = 40
	highScore = 66
)

// Score maps forecasted demand relative to the historical average onto
// [0, 100]. A zero average scores 50.
func Score(forecasted, average float64) float64 {
	ratio := 1.0
	if average != 0 {
		ratio = forecasted / average
	}
	s := 50 + 50*math.Tanh(2*(ratio-1))
	return math.Max(0, math.Min(100, s))
}

// AdjustPrice returns the dynamic price for score, rounded to cents. Scores
// below 40 lower the price by 10%, scores above 66 raise it by 10%.
func AdjustPrice(base, score float64) float64 {
	switch {
	case score < lowScore:
		return model.RoundCurrency(base * decreaseFactor)
	case score <= highScore:
		return model.RoundCurrency(base)
	default:
		return model.RoundCurrency(base * increaseFactor)
	}
}
