// Package rating holds the pure rating and match-analytics computations:
// win probability, rating deltas, head-to-head and common-opponent
// analysis. Nothing here performs I/O or keeps state between calls.
package rating

import "math"

// EloScale is the logistic scale constant of the expectation curve.
const EloScale = 400.0

type Prediction struct {
	PlayerAWinProbability float64
	PlayerBWinProbability float64
}

// WinProbability returns the expected chance that a player rated ratingA
// beats one rated ratingB.
func WinProbability(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/EloScale))
}

func Predict(ratingA, ratingB int) Prediction {
	pa := WinProbability(float64(ratingA), float64(ratingB))
	return Prediction{
		PlayerAWinProbability: pa,
		PlayerBWinProbability: 1 - pa,
	}
}

// Percent rounds a probability to a whole percentage for display.
func Percent(p float64) int {
	return int(math.Round(p * 100))
}
