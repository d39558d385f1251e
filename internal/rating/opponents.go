package rating

import (
	"cmp"
	"math"
	"slices"
	"takurating/internal/domain"
)

const unknownOpponent = "Unknown"

// CommonOpponent is a third player both A and B have faced, with each
// side's record against them.
type CommonOpponent struct {
	OpponentID          string
	OpponentName        string
	PlayerAWins         int
	PlayerATotalMatches int
	PlayerBWins         int
	PlayerBTotalMatches int
	PlayerAWinRate      float64
	PlayerBWinRate      float64
}

// Divergence is how differently A and B fared against this opponent.
func (c CommonOpponent) Divergence() float64 {
	return math.Abs(c.PlayerAWinRate - c.PlayerBWinRate)
}

type TriangleAnalysis struct {
	CommonOpponents   []CommonOpponent
	PlayerAAvgWinRate float64
	PlayerBAvgWinRate float64
}

// Top returns at most k of the most divergent common opponents.
func (t TriangleAnalysis) Top(k int) []CommonOpponent {
	if k < 0 {
		k = 0
	}
	if k > len(t.CommonOpponents) {
		k = len(t.CommonOpponents)
	}
	return t.CommonOpponents[:k]
}

// CommonOpponents finds roster players who have played both a and b and
// compares how each fared against them. See Index.CommonOpponents.
func CommonOpponents(matches []domain.Match, roster []domain.Player, a, b string) TriangleAnalysis {
	return NewIndex(matches).CommonOpponents(roster, a, b)
}

// CommonOpponents walks the roster and keeps players that both a and b
// have at least one match against; a and b themselves are never listed.
// Entries are ordered by Divergence, largest first, with roster order
// breaking ties. Averages are zero when there are no entries.
func (idx *Index) CommonOpponents(roster []domain.Player, a, b string) TriangleAnalysis {
	analysis := TriangleAnalysis{CommonOpponents: []CommonOpponent{}}
	if a == b {
		return analysis
	}

	seen := make(map[string]struct{}, len(roster))
	for _, p := range roster {
		if p.ID == a || p.ID == b {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}

		ta := idx.against(a, p.ID)
		tb := idx.against(b, p.ID)
		if ta.total == 0 || tb.total == 0 {
			continue
		}

		name := p.Name
		if name == "" {
			name = unknownOpponent
		}

		analysis.CommonOpponents = append(analysis.CommonOpponents, CommonOpponent{
			OpponentID:          p.ID,
			OpponentName:        name,
			PlayerAWins:         ta.wins,
			PlayerATotalMatches: ta.total,
			PlayerBWins:         tb.wins,
			PlayerBTotalMatches: tb.total,
			PlayerAWinRate:      ta.rate(),
			PlayerBWinRate:      tb.rate(),
		})
	}

	if n := len(analysis.CommonOpponents); n > 0 {
		var sumA, sumB float64
		for _, c := range analysis.CommonOpponents {
			sumA += c.PlayerAWinRate
			sumB += c.PlayerBWinRate
		}
		analysis.PlayerAAvgWinRate = sumA / float64(n)
		analysis.PlayerBAvgWinRate = sumB / float64(n)
	}

	slices.SortStableFunc(analysis.CommonOpponents, func(x, y CommonOpponent) int {
		return cmp.Compare(y.Divergence(), x.Divergence())
	})

	return analysis
}
