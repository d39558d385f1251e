package service

import (
	"context"
	"fmt"
	"sync"
	"takurating/internal/config"
	"takurating/internal/constants"
	"takurating/internal/domain"
	"takurating/internal/rating"
	"takurating/internal/repository"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// snapshot is an immutable copy of the roster and match log taken at
// loadedAt. Analytics run against it without touching the database.
// aggregates hold the rating change over the window ending at loadedAt.
type snapshot struct {
	roster     []domain.Player
	byID       map[string]domain.Player
	matches    []domain.Match
	index      *rating.Index
	aggregates map[string]rating.Aggregate
	loadedAt   time.Time
}

type Comparison struct {
	PlayerA    domain.Player
	PlayerB    domain.Player
	Prediction rating.Prediction
	HeadToHead rating.HeadToHead
	Triangle   rating.TriangleAnalysis
}

type Upset struct {
	Match  domain.Match
	Winner domain.Player
	Loser  domain.Player
}

type Insights struct {
	BiggestUpset *Upset
	TopRiser     *domain.PlayerStats
}

type CompareService struct {
	players *repository.PlayerRepository
	matches *repository.MatchRepository
	ttl     time.Duration
	logger  zerolog.Logger
	now     func() time.Time

	mu   sync.Mutex
	snap *snapshot
}

func NewCompareService(players *repository.PlayerRepository, matches *repository.MatchRepository, cfg *config.Config, logger zerolog.Logger) *CompareService {
	return &CompareService{
		players: players,
		matches: matches,
		ttl:     cfg.CacheTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// Invalidate drops the cached snapshot so the next query reloads it.
func (s *CompareService) Invalidate() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
	s.logger.Debug().Msg("analytics snapshot invalidated")
}

func (s *CompareService) load(ctx context.Context) (*snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap != nil && s.now().Sub(s.snap.loadedAt) < s.ttl {
		return s.snap, nil
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	var roster []domain.Player
	var matches []domain.Match

	g.Go(func() error {
		var err error
		roster, err = s.players.All(gCtx)
		return err
	})

	g.Go(func() error {
		var err error
		matches, err = s.matches.All(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to load analytics snapshot")
		return nil, fmt.Errorf("failed to load analytics snapshot: %w", err)
	}

	byID := make(map[string]domain.Player, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}

	loadedAt := s.now()
	s.snap = &snapshot{
		roster:     roster,
		byID:       byID,
		matches:    matches,
		index:      rating.NewIndex(matches),
		aggregates: rating.Aggregates(matches, loadedAt.Add(-constants.RatingChangeWindow)),
		loadedAt:   loadedAt,
	}
	s.logger.Debug().
		Int("players", len(roster)).
		Int("matches", s.snap.index.Len()).
		Msg("analytics snapshot loaded")

	return s.snap, nil
}

// Aggregates returns every player's record and windowed rating change
// from the cached snapshot. The map must not be modified.
func (s *CompareService) Aggregates(ctx context.Context) (map[string]rating.Aggregate, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.aggregates, nil
}

func (s *CompareService) Compare(ctx context.Context, playerA, playerB string) (*Comparison, error) {
	if playerA == playerB {
		return nil, domain.ErrSelfComparison
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	a, ok := snap.byID[playerA]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, playerA)
	}
	b, ok := snap.byID[playerB]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, playerB)
	}

	cmp := &Comparison{
		PlayerA:    a,
		PlayerB:    b,
		Prediction: rating.Predict(a.Rating, b.Rating),
		HeadToHead: snap.index.HeadToHead(playerA, playerB),
		Triangle:   snap.index.CommonOpponents(snap.roster, playerA, playerB),
	}

	s.logger.Info().
		Str("player_a", playerA).
		Str("player_b", playerB).
		Int("h2h_matches", cmp.HeadToHead.TotalMatches).
		Int("common_opponents", len(cmp.Triangle.CommonOpponents)).
		Msg("players compared")

	return cmp, nil
}

// Insights reports the biggest upset of the current month and the
// player with the largest rating gain over the trailing window.
func (s *CompareService) Insights(ctx context.Context) (*Insights, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := &Insights{}

	if m, ok := rating.BiggestUpset(snap.matches, rating.MonthStart(now)); ok {
		out.BiggestUpset = &Upset{
			Match:  m,
			Winner: snap.byID[m.WinnerID],
			Loser:  snap.byID[m.LoserID],
		}
	}

	stats := make([]domain.PlayerStats, 0, len(snap.roster))
	for _, p := range snap.roster {
		st := domain.PlayerStats{Player: p}
		snap.aggregates[p.ID].Apply(&st)
		stats = append(stats, st)
	}
	if top, ok := rating.TopRiser(stats); ok {
		out.TopRiser = &top
	}

	return out, nil
}
