package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"takurating/internal/constants"
	"takurating/internal/domain"
	"takurating/internal/rating"
	"takurating/internal/repository"
	"time"

	"github.com/rs/zerolog"
)

type DeltaPreview struct {
	Winner domain.Player
	Loser  domain.Player
	Delta  rating.Delta
}

type RegisterMatchParams struct {
	WinnerID string
	LoserID  string
	Score    string
	PlayedAt time.Time
	EventID  string // optional tournament
}

type MatchService struct {
	db             *sql.DB
	playerRepo     *repository.PlayerRepository
	matchRepo      *repository.MatchRepository
	historyRepo    *repository.RatingHistoryRepository
	tournamentRepo *repository.TournamentRepository
	strategy       rating.DeltaStrategy
	compareSvc     *CompareService
	logger         zerolog.Logger

	// registrations are serialized so both ratings are read and written
	// without another registration in between.
	mu sync.Mutex
}

func NewMatchService(
	sqlDB *sql.DB,
	playerRepo *repository.PlayerRepository,
	matchRepo *repository.MatchRepository,
	historyRepo *repository.RatingHistoryRepository,
	tournamentRepo *repository.TournamentRepository,
	strategy rating.DeltaStrategy,
	compareSvc *CompareService,
	logger zerolog.Logger,
) *MatchService {
	return &MatchService{
		db:             sqlDB,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		historyRepo:    historyRepo,
		tournamentRepo: tournamentRepo,
		strategy:       strategy,
		compareSvc:     compareSvc,
		logger:         logger,
	}
}

// PreviewDelta computes the delta a win of winnerID over loserID would
// apply right now, without recording anything.
func (s *MatchService) PreviewDelta(ctx context.Context, winnerID, loserID string) (*DeltaPreview, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if winnerID == loserID {
		return nil, domain.ErrSamePlayer
	}

	winner, err := s.playerRepo.Get(ctx, winnerID)
	if err != nil {
		return nil, err
	}
	loser, err := s.playerRepo.Get(ctx, loserID)
	if err != nil {
		return nil, err
	}

	delta, err := s.strategy.Delta(ctx, winner.Rating, loser.Rating)
	if err != nil {
		s.logger.Error().Err(err).Str("winner_id", winnerID).Str("loser_id", loserID).Msg("failed to calculate delta")
		return nil, fmt.Errorf("failed to calculate delta: %w", err)
	}

	return &DeltaPreview{Winner: *winner, Loser: *loser, Delta: delta}, nil
}

// RegisterMatch records a result: it snapshots both ratings, computes
// the delta, stores the match, moves the points and appends one rating
// history row per player, all in one transaction.
func (s *MatchService) RegisterMatch(ctx context.Context, params RegisterMatchParams) (*domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if params.WinnerID == "" || params.LoserID == "" {
		return nil, domain.ErrMissingPlayer
	}
	if params.WinnerID == params.LoserID {
		return nil, domain.ErrSamePlayer
	}
	score, err := domain.ParseScore(params.Score)
	if err != nil {
		return nil, err
	}
	playedAt := params.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if params.EventID != "" {
		if _, err := s.tournamentRepo.WithTx(tx).Get(ctx, params.EventID); err != nil {
			return nil, err
		}
	}

	players := s.playerRepo.WithTx(tx)

	winner, err := players.Get(ctx, params.WinnerID)
	if err != nil {
		return nil, err
	}
	loser, err := players.Get(ctx, params.LoserID)
	if err != nil {
		return nil, err
	}

	delta, err := s.strategy.Delta(ctx, winner.Rating, loser.Rating)
	if err != nil {
		s.logger.Error().Err(err).Str("winner_id", winner.ID).Str("loser_id", loser.ID).Msg("failed to calculate delta")
		return nil, fmt.Errorf("failed to calculate delta: %w", err)
	}

	now := time.Now().UTC()
	match := &domain.Match{
		WinnerID:           winner.ID,
		LoserID:            loser.ID,
		Score:              score,
		PlayedAt:           playedAt.UTC(),
		WinnerRatingBefore: winner.Rating,
		LoserRatingBefore:  loser.Rating,
		DeltaWinner:        delta.Winner,
		DeltaLoser:         delta.Loser,
		EventID:            params.EventID,
		CreatedAt:          now,
	}
	if err := s.matchRepo.WithTx(tx).Insert(ctx, match); err != nil {
		return nil, err
	}

	winnerAfter := winner.Rating + delta.Winner
	loserAfter := loser.Rating + delta.Loser
	if err := players.UpdateRating(ctx, winner.ID, winnerAfter); err != nil {
		return nil, fmt.Errorf("failed to update winner rating: %w", err)
	}
	if err := players.UpdateRating(ctx, loser.ID, loserAfter); err != nil {
		return nil, fmt.Errorf("failed to update loser rating: %w", err)
	}

	err = s.historyRepo.WithTx(tx).Append(ctx, []domain.RatingHistory{
		{
			MatchID:      match.ID,
			PlayerID:     winner.ID,
			OpponentID:   loser.ID,
			IsWinner:     true,
			RatingBefore: winner.Rating,
			RatingAfter:  winnerAfter,
			Delta:        delta.Winner,
			CreatedAt:    now,
		},
		{
			MatchID:      match.ID,
			PlayerID:     loser.ID,
			OpponentID:   winner.ID,
			IsWinner:     false,
			RatingBefore: loser.Rating,
			RatingAfter:  loserAfter,
			Delta:        delta.Loser,
			CreatedAt:    now,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit match: %w", err)
	}

	s.compareSvc.Invalidate()

	s.logger.Info().
		Str("match_id", match.ID).
		Str("winner_id", winner.ID).
		Str("loser_id", loser.ID).
		Str("score", score.String()).
		Int("delta", delta.Winner).
		Msg("match registered")

	return match, nil
}
