package service

import (
	"context"
	"takurating/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerService_GetPlayer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "seo", "kim", "3:1")
	env.register(t, "koo", "seo", "3:0")

	stats, err := env.player.GetPlayer(ctx, "seo")
	require.NoError(t, err)
	assert.Equal(t, "SNU", stats.SchoolCode)
	assert.Equal(t, 2, stats.TotalMatches)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 50.0, stats.WinRate)
	assert.Equal(t, stats.Rating-1850, stats.RatingChange30d)

	_, err = env.player.GetPlayer(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestPlayerService_ListRankings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "kim", "seo", "3:0")

	ranked, err := env.player.ListRankings(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"kim", "koo", "seo"}, []string{ranked[0].ID, ranked[1].ID, ranked[2].ID})
	assert.Equal(t, 1, ranked[0].Wins)
	assert.Equal(t, 0, ranked[1].TotalMatches)
	assert.Equal(t, 1, ranked[2].Losses)

	page, err := env.player.ListRankings(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "koo", page[0].ID)
}

func TestPlayerService_ListRankingsUsesSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "kim", "seo", "3:0")
	ranked, err := env.player.ListRankings(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, ranked[0].TotalMatches)

	// written behind the services' back
	require.NoError(t, env.matches.Insert(ctx, &domain.Match{
		WinnerID: "kim", LoserID: "koo", Score: domain.Score{Winner: 3, Loser: 2}, PlayedAt: time.Now(), DeltaWinner: 7, DeltaLoser: -7,
	}))

	ranked, err = env.player.ListRankings(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, ranked[0].TotalMatches)

	env.compare.Invalidate()
	ranked, err = env.player.ListRankings(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "kim", ranked[0].ID)
	assert.Equal(t, 2, ranked[0].TotalMatches)
	assert.Equal(t, 2, ranked[0].Wins)
}

func TestPlayerService_TournamentHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.events.UpsertBatch(ctx, []domain.Tournament{
		{ID: "spring", Name: "Spring Open", Location: "Seoul", EventDate: time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC), TotalParticipants: 32, Type: domain.TournamentOpen},
	}))
	require.NoError(t, env.events.UpsertResults(ctx, []domain.TournamentResult{
		{TournamentID: "spring", PlayerID: "koo", Result: domain.ResultSemiFinal},
	}))

	history, err := env.player.TournamentHistory(ctx, "koo")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Spring Open", history[0].TournamentName)
	assert.Equal(t, domain.ResultSemiFinal, history[0].Result)

	none, err := env.player.TournamentHistory(ctx, "kim")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = env.player.TournamentHistory(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

	list, err := env.player.ListTournaments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.TournamentOpen, list[0].Type)
}

func TestPlayerService_SearchPlayers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	found, err := env.player.SearchPlayers(ctx, "  kim ")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "kim", found[0].ID)

	found, err = env.player.SearchPlayers(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestPlayerService_MatchHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "seo", "kim", "3:1")

	entries, err := env.player.MatchHistory(ctx, "kim", 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "seo", e.OpponentID)
	assert.Equal(t, "Seo Youngmin", e.OpponentName)
	assert.Equal(t, 1850, e.OpponentRating)
	assert.False(t, e.IsWinner)
	assert.Equal(t, 1, e.MyScore)
	assert.Equal(t, 3, e.OpponentScore)
	assert.Equal(t, 2130, e.RatingBefore)
	assert.Equal(t, 2080, e.RatingAfter)

	_, err = env.player.MatchHistory(ctx, "nobody", 0, 0)
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestPlayerService_RatingHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "seo", "kim", "3:1")
	env.register(t, "seo", "koo", "3:2")

	history, err := env.player.RatingHistory(ctx, "seo", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1850, history[0].RatingBefore)
	assert.Equal(t, history[0].RatingAfter, history[1].RatingBefore)
}

func TestPlayerService_CreatePlayer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.player.CreatePlayer(ctx, CreatePlayerParams{Name: "Lim Jonghoon", SchoolID: "kaist", UniDivision: "A", ClubDivision: -2})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, domain.DefaultRating, p.Rating)

	stored, err := env.players.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lim Jonghoon", stored.Name)

	_, err = env.player.CreatePlayer(ctx, CreatePlayerParams{Name: "Too Strong", SchoolID: "kaist", ClubDivision: -3})
	assert.ErrorIs(t, err, domain.ErrInvalidDivision)

	_, err = env.player.CreatePlayer(ctx, CreatePlayerParams{Name: "Nowhere", SchoolID: "mit", ClubDivision: 2})
	assert.ErrorIs(t, err, domain.ErrSchoolNotFound)

	schools, err := env.player.ListSchools(ctx)
	require.NoError(t, err)
	assert.Len(t, schools, 2)
}
