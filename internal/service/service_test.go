package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"takurating/internal/config"
	"takurating/internal/database"
	"takurating/internal/domain"
	"takurating/internal/rating"
	"takurating/internal/repository"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db      *sql.DB
	cfg     *config.Config
	schools *repository.SchoolRepository
	players *repository.PlayerRepository
	matches *repository.MatchRepository
	history *repository.RatingHistoryRepository
	events  *repository.TournamentRepository

	compare  *CompareService
	matchSvc *MatchService
	player   *PlayerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		DBDriver: "sqlite3",
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
		CacheTTL: 5 * time.Minute,
	}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zerolog.Nop()
	env := &testEnv{
		db:      db,
		cfg:     cfg,
		schools: repository.NewSchoolRepository(db, log),
		players: repository.NewPlayerRepository(db, log),
		matches: repository.NewMatchRepository(db, log),
		history: repository.NewRatingHistoryRepository(db, log),
		events:  repository.NewTournamentRepository(db, log),
	}
	env.compare = NewCompareService(env.players, env.matches, cfg, log)
	env.matchSvc = NewMatchService(db, env.players, env.matches, env.history, env.events, rating.NewUSATTTable(rating.DefaultDeltaCap), env.compare, log)
	env.player = NewPlayerService(env.players, env.matches, env.history, env.schools, env.events, env.compare, log)

	ctx := context.Background()
	require.NoError(t, env.schools.UpsertBatch(ctx, []domain.School{
		{ID: "snu", Name: "Seoul National University", Code: "SNU"},
		{ID: "kaist", Name: "KAIST", Code: "KAIST"},
	}))
	require.NoError(t, env.players.UpsertBatch(ctx, []domain.Player{
		{ID: "kim", Name: "Kim Jaehoon", SchoolID: "snu", UniDivision: "A", ClubDivision: 0, Rating: 2130},
		{ID: "koo", Name: "Koo Dongyoung", SchoolID: "kaist", UniDivision: "A", ClubDivision: 1, Rating: 2113},
		{ID: "seo", Name: "Seo Youngmin", SchoolID: "snu", UniDivision: "B", ClubDivision: 3, Rating: 1850},
	}))
	return env
}

func (e *testEnv) register(t *testing.T, winner, loser, score string) *domain.Match {
	t.Helper()
	m, err := e.matchSvc.RegisterMatch(context.Background(), RegisterMatchParams{
		WinnerID: winner,
		LoserID:  loser,
		Score:    score,
	})
	require.NoError(t, err)
	return m
}

func (e *testEnv) rating(t *testing.T, id string) int {
	t.Helper()
	p, err := e.players.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Rating
}
