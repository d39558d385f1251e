package rating

import (
	"context"
	"errors"
	"math"
	"takurating/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUSATTTable_Delta(t *testing.T) {
	table := NewUSATTTable(DefaultDeltaCap)

	tests := []struct {
		name   string
		winner int
		loser  int
		want   int
	}{
		{name: "equal ratings", winner: 1500, loser: 1500, want: 8},
		{name: "band edge 12", winner: 1512, loser: 1500, want: 8},
		{name: "upset band edge 12", winner: 1500, loser: 1512, want: 8},
		{name: "favourite by 17", winner: 2130, loser: 2113, want: 7},
		{name: "underdog by 17", winner: 2113, loser: 2130, want: 10},
		{name: "favourite by 100", winner: 2000, loser: 1900, want: 4},
		{name: "underdog by 100", winner: 1900, loser: 2000, want: 20},
		{name: "underdog by 240", winner: 1850, loser: 2090, want: 50},
		{name: "favourite by 500", winner: 2300, loser: 1800, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := table.Delta(context.Background(), tt.winner, tt.loser)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Winner)
			assert.Equal(t, -tt.want, d.Loser)
		})
	}
}

func TestUSATTTable_Cap(t *testing.T) {
	table := NewUSATTTable(20)

	d, err := table.Delta(context.Background(), 1500, 2000)
	require.NoError(t, err)
	assert.Equal(t, Delta{Winner: 20, Loser: -20}, d)
}

func TestUSATTTable_UpsetsPayMore(t *testing.T) {
	table := NewUSATTTable(DefaultDeltaCap)
	ctx := context.Background()

	for gap := 0; gap <= 400; gap += 5 {
		expected, err := table.Delta(ctx, 1800+gap, 1800)
		require.NoError(t, err)
		upset, err := table.Delta(ctx, 1800, 1800+gap)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, upset.Winner, expected.Winner, "gap=%d", gap)
		assert.GreaterOrEqual(t, expected.Winner, 0)
		assert.LessOrEqual(t, upset.Winner, DefaultDeltaCap)
	}
}

func TestEloStrategy_Delta(t *testing.T) {
	elo := &EloStrategy{K: 32, Cap: DefaultDeltaCap}
	ctx := context.Background()

	d, err := elo.Delta(ctx, 1500, 1500)
	require.NoError(t, err)
	assert.Equal(t, Delta{Winner: 16, Loser: -16}, d)

	fav, err := elo.Delta(ctx, 1700, 1500)
	require.NoError(t, err)
	dog, err := elo.Delta(ctx, 1500, 1700)
	require.NoError(t, err)
	assert.Less(t, fav.Winner, d.Winner)
	assert.Greater(t, dog.Winner, d.Winner)
	assert.Equal(t, 32, fav.Winner+dog.Winner)
}

func TestEloStrategy_Cap(t *testing.T) {
	elo := &EloStrategy{K: 100, Cap: 40}

	d, err := elo.Delta(context.Background(), 1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, 40, d.Winner)
}

type fixedStrategy struct {
	points int
	err    error
}

func (f fixedStrategy) Delta(context.Context, int, int) (Delta, error) {
	return Delta{Winner: f.points, Loser: -f.points}, f.err
}

func TestCapped(t *testing.T) {
	ctx := context.Background()

	d, err := (&Capped{Strategy: fixedStrategy{points: 80}, Cap: 50}).Delta(ctx, 1500, 1500)
	require.NoError(t, err)
	assert.Equal(t, Delta{Winner: 50, Loser: -50}, d)

	d, err = (&Capped{Strategy: fixedStrategy{points: -5}, Cap: 50}).Delta(ctx, 1500, 1500)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Winner)

	boom := errors.New("rpc failed")
	_, err = (&Capped{Strategy: fixedStrategy{err: boom}, Cap: 50}).Delta(ctx, 1500, 1500)
	assert.ErrorIs(t, err, boom)
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy("", 0, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &USATTTable{}, s)

	s, err = NewStrategy(StrategyElo, 0, 30, nil)
	require.NoError(t, err)
	require.IsType(t, &EloStrategy{}, s)
	assert.Equal(t, DefaultKFactor, s.(*EloStrategy).K)
	assert.Equal(t, 30, s.(*EloStrategy).Cap)

	s, err = NewStrategy(StrategyRemote, 0, 0, fixedStrategy{points: 9})
	require.NoError(t, err)
	assert.IsType(t, &Capped{}, s)

	_, err = NewStrategy(StrategyRemote, 0, 0, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)

	_, err = NewStrategy("glicko", 0, 0, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func TestUSATTTable_CustomRows(t *testing.T) {
	table := &USATTTable{
		Rows: []ExchangeRow{
			{MaxGap: 100, Expected: 10, Upset: 12},
			{MaxGap: math.MaxInt, Expected: 1, Upset: 30},
		},
		Cap: DefaultDeltaCap,
	}

	d, err := table.Delta(context.Background(), 1500, 1450)
	require.NoError(t, err)
	assert.Equal(t, Delta{Winner: 10, Loser: -10}, d)

	d, err = table.Delta(context.Background(), 1400, 1600)
	require.NoError(t, err)
	assert.Equal(t, Delta{Winner: 30, Loser: -30}, d)
}
