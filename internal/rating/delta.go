package rating

import (
	"context"
	"fmt"
	"math"
	"takurating/internal/domain"
)

const (
	DefaultDeltaCap = 50
	DefaultKFactor  = 32.0
)

const (
	StrategyUSATT  = "usatt"
	StrategyElo    = "elo"
	StrategyRemote = "remote"
)

// Delta is the rating adjustment of a completed match. Points move from
// the loser to the winner, so Loser == -Winner and Winner >= 0.
type Delta struct {
	Winner int
	Loser  int
}

// DeltaStrategy computes the rating delta for a match given the ratings
// both players held before it.
type DeltaStrategy interface {
	Delta(ctx context.Context, winnerRating, loserRating int) (Delta, error)
}

func transfer(points, limit int) Delta {
	if points < 0 {
		points = 0
	}
	if limit > 0 && points > limit {
		points = limit
	}
	return Delta{Winner: points, Loser: -points}
}

// ExchangeRow is one band of a point-exchange table. A band covers rating
// gaps up to and including MaxGap.
type ExchangeRow struct {
	MaxGap   int
	Expected int // higher rated player wins
	Upset    int // lower rated player wins
}

// USATTExchange is the USATT point exchange table.
var USATTExchange = []ExchangeRow{
	{MaxGap: 12, Expected: 8, Upset: 8},
	{MaxGap: 37, Expected: 7, Upset: 10},
	{MaxGap: 62, Expected: 6, Upset: 13},
	{MaxGap: 87, Expected: 5, Upset: 16},
	{MaxGap: 112, Expected: 4, Upset: 20},
	{MaxGap: 137, Expected: 3, Upset: 25},
	{MaxGap: 162, Expected: 2, Upset: 30},
	{MaxGap: 187, Expected: 2, Upset: 35},
	{MaxGap: 212, Expected: 1, Upset: 40},
	{MaxGap: 237, Expected: 1, Upset: 45},
	{MaxGap: math.MaxInt, Expected: 0, Upset: 50},
}

// USATTTable looks the delta up in a point-exchange table. Rows must be
// sorted by MaxGap and the last row should be open-ended.
type USATTTable struct {
	Rows []ExchangeRow
	Cap  int
}

func NewUSATTTable(limit int) *USATTTable {
	return &USATTTable{Rows: USATTExchange, Cap: limit}
}

func (t *USATTTable) Delta(_ context.Context, winnerRating, loserRating int) (Delta, error) {
	gap := winnerRating - loserRating
	upset := gap < 0
	if upset {
		gap = -gap
	}

	if len(t.Rows) == 0 {
		return transfer(0, t.Cap), nil
	}
	row := t.Rows[len(t.Rows)-1]
	for _, r := range t.Rows {
		if gap <= r.MaxGap {
			row = r
			break
		}
	}

	if upset {
		return transfer(row.Upset, t.Cap), nil
	}
	return transfer(row.Expected, t.Cap), nil
}

// EloStrategy moves K * (1 - expected score of the winner) points.
type EloStrategy struct {
	K   float64
	Cap int
}

func (e *EloStrategy) Delta(_ context.Context, winnerRating, loserRating int) (Delta, error) {
	expected := WinProbability(float64(winnerRating), float64(loserRating))
	points := int(math.Round(e.K * (1 - expected)))
	return transfer(points, e.Cap), nil
}

// Capped clamps whatever the wrapped strategy returns into [0, Cap].
type Capped struct {
	Strategy DeltaStrategy
	Cap      int
}

func (c *Capped) Delta(ctx context.Context, winnerRating, loserRating int) (Delta, error) {
	d, err := c.Strategy.Delta(ctx, winnerRating, loserRating)
	if err != nil {
		return Delta{}, err
	}
	return transfer(d.Winner, c.Cap), nil
}

// NewStrategy picks a strategy by name. remote is only consulted for
// StrategyRemote and may be nil otherwise.
func NewStrategy(name string, kFactor float64, limit int, remote DeltaStrategy) (DeltaStrategy, error) {
	if limit <= 0 {
		limit = DefaultDeltaCap
	}

	switch name {
	case "", StrategyUSATT:
		return NewUSATTTable(limit), nil
	case StrategyElo:
		if kFactor <= 0 {
			kFactor = DefaultKFactor
		}
		return &EloStrategy{K: kFactor, Cap: limit}, nil
	case StrategyRemote:
		if remote == nil {
			return nil, fmt.Errorf("%w: %s requires a remote backend", domain.ErrUnknownStrategy, name)
		}
		return &Capped{Strategy: remote, Cap: limit}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, name)
	}
}
