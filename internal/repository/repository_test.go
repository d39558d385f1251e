package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"takurating/internal/config"
	"takurating/internal/constants"
	"takurating/internal/database"
	"takurating/internal/domain"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := &config.Config{DBDriver: "sqlite3", DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedPlayers(t *testing.T, db *sql.DB) (*SchoolRepository, *PlayerRepository) {
	t.Helper()
	ctx := context.Background()

	schools := NewSchoolRepository(db, zerolog.Nop())
	players := NewPlayerRepository(db, zerolog.Nop())

	require.NoError(t, schools.UpsertBatch(ctx, []domain.School{
		{ID: "snu", Name: "Seoul National University", Code: "SNU"},
		{ID: "kaist", Name: "KAIST", Code: "KAIST"},
	}))
	require.NoError(t, players.UpsertBatch(ctx, []domain.Player{
		{ID: "kim", Name: "Kim Jaehoon", SchoolID: "snu", UniDivision: "A", ClubDivision: 0, Rating: 2130},
		{ID: "koo", Name: "Koo Dongyoung", SchoolID: "kaist", UniDivision: "A", ClubDivision: 1, Rating: 2113},
		{ID: "seo", Name: "Seo Youngmin", SchoolID: "snu", UniDivision: "B", ClubDivision: 3, Rating: 1850},
	}))
	return schools, players
}

func TestSchoolRepository(t *testing.T) {
	db := newTestDB(t)
	schools, _ := seedPlayers(t, db)
	ctx := context.Background()

	list, err := schools.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "KAIST", list[0].Code)

	s, err := schools.Get(ctx, "snu")
	require.NoError(t, err)
	assert.Equal(t, "SNU", s.Code)

	_, err = schools.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrSchoolNotFound)

	fresh := domain.School{Name: "Yonsei", Code: "YS"}
	require.NoError(t, schools.Upsert(ctx, &fresh))
	assert.NotEmpty(t, fresh.ID)
}

func TestPlayerRepository(t *testing.T) {
	db := newTestDB(t)
	_, players := seedPlayers(t, db)
	ctx := context.Background()

	p, err := players.Get(ctx, "kim")
	require.NoError(t, err)
	assert.Equal(t, 2130, p.Rating)

	_, err = players.Get(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

	stats, err := players.GetStats(ctx, "koo")
	require.NoError(t, err)
	assert.Equal(t, "KAIST", stats.SchoolCode)
	assert.Equal(t, 1, stats.ClubDivision)

	ranked, err := players.ListByRating(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "kim", ranked[0].ID)
	assert.Equal(t, "koo", ranked[1].ID)

	ranked, err = players.ListByRating(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "seo", ranked[0].ID)

	found, err := players.Search(ctx, "youngmin", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "seo", found[0].ID)

	require.NoError(t, players.UpdateRating(ctx, "seo", 1885))
	p, err = players.Get(ctx, "seo")
	require.NoError(t, err)
	assert.Equal(t, 1885, p.Rating)

	assert.ErrorIs(t, players.UpdateRating(ctx, "ghost", 1000), domain.ErrPlayerNotFound)

	all, err := players.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMatchRepository(t *testing.T) {
	db := newTestDB(t)
	seedPlayers(t, db)
	ctx := context.Background()
	matches := NewMatchRepository(db, zerolog.Nop())

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	log := []domain.Match{
		{ID: "m1", WinnerID: "kim", LoserID: "koo", Score: domain.Score{Winner: 3, Loser: 2}, PlayedAt: base, WinnerRatingBefore: 2130, LoserRatingBefore: 2113, DeltaWinner: 7, DeltaLoser: -7},
		{ID: "m2", WinnerID: "seo", LoserID: "kim", Score: domain.Score{Winner: 3, Loser: 1}, PlayedAt: base.Add(24 * time.Hour), WinnerRatingBefore: 1850, LoserRatingBefore: 2137, DeltaWinner: 50, DeltaLoser: -50},
		{ID: "m3", WinnerID: "koo", LoserID: "seo", Score: domain.Score{Winner: 3, Loser: 0}, PlayedAt: base.Add(48 * time.Hour), WinnerRatingBefore: 2106, LoserRatingBefore: 1900, DeltaWinner: 1, DeltaLoser: -1},
	}
	require.NoError(t, matches.InsertBatch(ctx, log))

	all, err := matches.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "m3", all[0].ID)
	assert.Equal(t, domain.Score{Winner: 3, Loser: 0}, all[0].Score)
	assert.True(t, all[0].PlayedAt.Equal(base.Add(48*time.Hour)))

	kim, err := matches.ByPlayer(ctx, "kim", 10, 0)
	require.NoError(t, err)
	require.Len(t, kim, 2)
	assert.Equal(t, "m2", kim[0].ID)
	assert.Equal(t, "m1", kim[1].ID)

	seo, err := matches.AllForPlayer(ctx, "seo")
	require.NoError(t, err)
	assert.Len(t, seo, 2)

	page, err := matches.ByPlayer(ctx, "kim", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "m1", page[0].ID)

	m, err := matches.Get(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, 50, m.DeltaWinner)

	_, err = matches.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)

	dup := log[0]
	dup.DeltaWinner = 99
	require.NoError(t, matches.Insert(ctx, &dup))
	m, err = matches.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 7, m.DeltaWinner, "matches are immutable")

	self := domain.Match{WinnerID: "kim", LoserID: "kim", Score: domain.Score{Winner: 3, Loser: 0}, PlayedAt: base}
	assert.ErrorIs(t, matches.Insert(ctx, &self), domain.ErrSamePlayer)
}

func TestRatingHistoryRepository(t *testing.T) {
	db := newTestDB(t)
	seedPlayers(t, db)
	ctx := context.Background()

	matches := NewMatchRepository(db, zerolog.Nop())
	history := NewRatingHistoryRepository(db, zerolog.Nop())

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, matches.Insert(ctx, &domain.Match{
		ID: "m1", WinnerID: "kim", LoserID: "koo", Score: domain.Score{Winner: 3, Loser: 1},
		PlayedAt: base, WinnerRatingBefore: 2130, LoserRatingBefore: 2113, DeltaWinner: 7, DeltaLoser: -7,
	}))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, history.WithTx(tx).Append(ctx, []domain.RatingHistory{
		{MatchID: "m1", PlayerID: "kim", OpponentID: "koo", IsWinner: true, RatingBefore: 2130, RatingAfter: 2137, Delta: 7, CreatedAt: base},
		{MatchID: "m1", PlayerID: "koo", OpponentID: "kim", IsWinner: false, RatingBefore: 2113, RatingAfter: 2106, Delta: -7, CreatedAt: base},
		{MatchID: "m1", PlayerID: "kim", OpponentID: "koo", IsWinner: true, RatingBefore: 2137, RatingAfter: 2144, Delta: 7, CreatedAt: base.Add(time.Hour)},
	}))
	require.NoError(t, tx.Commit())

	kim, err := history.ByPlayer(ctx, "kim", 10)
	require.NoError(t, err)
	require.Len(t, kim, 2)
	assert.Equal(t, 2137, kim[0].RatingAfter)
	assert.Equal(t, 2144, kim[1].RatingAfter)
	assert.True(t, kim[0].IsWinner)

	latest, err := history.ByPlayer(ctx, "kim", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 2144, latest[0].RatingAfter)

	koo, err := history.ByPlayer(ctx, "koo", 10)
	require.NoError(t, err)
	require.Len(t, koo, 1)
	assert.False(t, koo[0].IsWinner)
}

func TestPlayerRepository_UpsertBatchChunks(t *testing.T) {
	db := newTestDB(t)
	_, players := seedPlayers(t, db)
	ctx := context.Background()

	n := constants.DBBatchSize*2 + 7
	batch := make([]domain.Player, 0, n+1)
	for i := range n {
		batch = append(batch, domain.Player{ID: fmt.Sprintf("p%03d", i), Name: "Player", SchoolID: "snu", UniDivision: "C", ClubDivision: 5, Rating: 1000 + i})
	}
	// a repeated id keeps its last row
	batch = append(batch, domain.Player{ID: "p000", Name: "Renamed", SchoolID: "kaist", UniDivision: "C", ClubDivision: 5, Rating: 1400})
	require.NoError(t, players.UpsertBatch(ctx, batch))

	all, err := players.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n+3)

	p, err := players.Get(ctx, "p000")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, "kaist", p.SchoolID)

	last, err := players.Get(ctx, fmt.Sprintf("p%03d", n-1))
	require.NoError(t, err)
	assert.Equal(t, 1000+n-1, last.Rating)
}

func TestBatchesJoinOuterTransaction(t *testing.T) {
	db := newTestDB(t)
	_, players := seedPlayers(t, db)
	ctx := context.Background()
	matches := NewMatchRepository(db, zerolog.Nop())

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, players.WithTx(tx).UpsertBatch(ctx, []domain.Player{
		{ID: "lee", Name: "Lee Sangsu", SchoolID: "kaist", UniDivision: "A", ClubDivision: 1, Rating: 1990},
	}))
	log := make([]domain.Match, 0, constants.DBBatchSize+1)
	for i := range constants.DBBatchSize + 1 {
		log = append(log, domain.Match{ID: fmt.Sprintf("m%03d", i), WinnerID: "lee", LoserID: "kim", Score: domain.Score{Winner: 3, Loser: 1}, PlayedAt: time.Now()})
	}
	require.NoError(t, matches.WithTx(tx).InsertBatch(ctx, log))

	inTx, err := matches.WithTx(tx).All(ctx)
	require.NoError(t, err)
	assert.Len(t, inTx, constants.DBBatchSize+1)

	require.NoError(t, tx.Rollback())

	_, err = players.Get(ctx, "lee")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	all, err := matches.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMatchRepository_InsertBatchRollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	seedPlayers(t, db)
	ctx := context.Background()
	matches := NewMatchRepository(db, zerolog.Nop())

	log := make([]domain.Match, 0, constants.DBBatchSize+1)
	for i := range constants.DBBatchSize {
		log = append(log, domain.Match{ID: fmt.Sprintf("m%03d", i), WinnerID: "kim", LoserID: "koo", Score: domain.Score{Winner: 3, Loser: 0}, PlayedAt: time.Now()})
	}
	// the second chunk references a missing player
	log = append(log, domain.Match{ID: "bad", WinnerID: "kim", LoserID: "ghost", Score: domain.Score{Winner: 3, Loser: 0}, PlayedAt: time.Now()})

	require.Error(t, matches.InsertBatch(ctx, log))

	all, err := matches.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTournamentRepository(t *testing.T) {
	db := newTestDB(t)
	seedPlayers(t, db)
	ctx := context.Background()
	tournaments := NewTournamentRepository(db, zerolog.Nop())
	matches := NewMatchRepository(db, zerolog.Nop())

	spring := time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)
	autumn := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tournaments.UpsertBatch(ctx, []domain.Tournament{
		{ID: "spring", Name: "Spring Open", Location: "Seoul", EventDate: spring, TotalParticipants: 32, Type: domain.TournamentOpen},
		{ID: "autumn", Name: "Autumn League", Location: "Daejeon", EventDate: autumn, TotalParticipants: 8, Type: domain.TournamentLeague},
	}))

	list, err := tournaments.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "autumn", list[0].ID)
	assert.True(t, list[1].EventDate.Equal(spring))

	_, err = tournaments.Get(ctx, "winter")
	assert.ErrorIs(t, err, domain.ErrTournamentNotFound)

	assert.ErrorIs(t, tournaments.UpsertBatch(ctx, []domain.Tournament{{Name: "Exhibition", EventDate: spring, Type: "exhibition"}}), domain.ErrInvalidTournament)

	rank := 2
	require.NoError(t, tournaments.UpsertResults(ctx, []domain.TournamentResult{
		{ID: "r1", TournamentID: "spring", PlayerID: "seo", Result: domain.ResultQuarterFinal},
		{ID: "r2", TournamentID: "autumn", PlayerID: "seo", Result: domain.ResultGroupStage, GroupRank: &rank},
		{ID: "r3", TournamentID: "spring", PlayerID: "kim", Result: domain.ResultWinner},
	}))
	assert.ErrorIs(t, tournaments.UpsertResults(ctx, []domain.TournamentResult{{TournamentID: "spring", PlayerID: "koo", Result: "champion"}}), domain.ErrInvalidTournament)

	history, err := tournaments.HistoryByPlayer(ctx, "seo")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Autumn League", history[0].TournamentName)
	assert.Equal(t, domain.ResultGroupStage, history[0].Result)
	require.NotNil(t, history[0].GroupRank)
	assert.Equal(t, 2, *history[0].GroupRank)
	assert.Equal(t, domain.ResultQuarterFinal, history[1].Result)
	assert.Nil(t, history[1].GroupRank)
	assert.Equal(t, 32, history[1].Participants)

	empty, err := tournaments.HistoryByPlayer(ctx, "koo")
	require.NoError(t, err)
	assert.Empty(t, empty)

	m := domain.Match{ID: "m1", WinnerID: "kim", LoserID: "seo", Score: domain.Score{Winner: 3, Loser: 1}, PlayedAt: spring, EventID: "spring"}
	require.NoError(t, matches.Insert(ctx, &m))
	got, err := matches.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "spring", got.EventID)

	orphan := domain.Match{ID: "m2", WinnerID: "kim", LoserID: "seo", Score: domain.Score{Winner: 3, Loser: 1}, PlayedAt: spring, EventID: "winter"}
	assert.Error(t, matches.Insert(ctx, &orphan))
}
