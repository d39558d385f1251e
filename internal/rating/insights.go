package rating

import (
	"math"
	"takurating/internal/domain"
	"time"
)

type Record struct {
	Wins    int
	Losses  int
	Total   int
	WinRate float64 // percentage, one decimal
}

func RecordOf(matches []domain.Match, playerID string) Record {
	var r Record
	for _, m := range matches {
		switch playerID {
		case m.WinnerID:
			r.Wins++
		case m.LoserID:
			r.Losses++
		default:
			continue
		}
		r.Total++
	}
	if r.Total > 0 {
		r.WinRate = math.Round(float64(r.Wins)/float64(r.Total)*1000) / 10
	}
	return r
}

// RatingChange sums the deltas applied to the player by matches played
// at or after since.
func RatingChange(matches []domain.Match, playerID string, since time.Time) int {
	change := 0
	for _, m := range matches {
		if m.PlayedAt.Before(since) {
			continue
		}
		switch playerID {
		case m.WinnerID:
			change += m.DeltaWinner
		case m.LoserID:
			change += m.DeltaLoser
		}
	}
	return change
}

// BiggestUpset is the match since the given time where the winner was
// rated furthest below the loser. Matches won by the favourite never
// qualify.
func BiggestUpset(matches []domain.Match, since time.Time) (domain.Match, bool) {
	var (
		best    domain.Match
		bestGap int
		found   bool
	)
	for _, m := range matches {
		if m.PlayedAt.Before(since) {
			continue
		}
		gap := m.LoserRatingBefore - m.WinnerRatingBefore
		if gap > bestGap {
			best, bestGap, found = m, gap, true
		}
	}
	return best, found
}

// TopRiser is the player with the largest positive 30 day rating change.
func TopRiser(stats []domain.PlayerStats) (domain.PlayerStats, bool) {
	var (
		top   domain.PlayerStats
		found bool
	)
	for _, s := range stats {
		if s.RatingChange30d > 0 && (!found || s.RatingChange30d > top.RatingChange30d) {
			top, found = s, true
		}
	}
	return top, found
}

// MonthStart is midnight of the first day of t's month in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Aggregate is a player's record over the whole log plus the rating
// change since a cut-off.
type Aggregate struct {
	Record
	RatingChange int
}

// Aggregates computes every player's Aggregate in one pass over the log.
func Aggregates(matches []domain.Match, since time.Time) map[string]Aggregate {
	out := make(map[string]Aggregate)
	for _, m := range matches {
		recent := !m.PlayedAt.Before(since)

		w := out[m.WinnerID]
		w.Wins++
		w.Total++
		if recent {
			w.RatingChange += m.DeltaWinner
		}
		out[m.WinnerID] = w

		l := out[m.LoserID]
		l.Losses++
		l.Total++
		if recent {
			l.RatingChange += m.DeltaLoser
		}
		out[m.LoserID] = l
	}
	for id, a := range out {
		a.WinRate = math.Round(float64(a.Wins)/float64(a.Total)*1000) / 10
		out[id] = a
	}
	return out
}

// Apply copies the aggregate into the stats row.
func (a Aggregate) Apply(s *domain.PlayerStats) {
	s.TotalMatches = a.Total
	s.Wins = a.Wins
	s.Losses = a.Losses
	s.WinRate = a.WinRate
	s.RatingChange30d = a.RatingChange
}
