package service

import (
	"context"
	"fmt"
	"strings"
	"takurating/internal/constants"
	"takurating/internal/domain"
	"takurating/internal/rating"
	"takurating/internal/repository"
	"time"

	"github.com/rs/zerolog"
)

type CreatePlayerParams struct {
	Name         string
	SchoolID     string
	UniDivision  string
	ClubDivision int
	Rating       int
}

type PlayerService struct {
	playerRepo     *repository.PlayerRepository
	matchRepo      *repository.MatchRepository
	historyRepo    *repository.RatingHistoryRepository
	schoolRepo     *repository.SchoolRepository
	tournamentRepo *repository.TournamentRepository
	compareSvc     *CompareService
	logger         zerolog.Logger
	now            func() time.Time
}

func NewPlayerService(
	playerRepo *repository.PlayerRepository,
	matchRepo *repository.MatchRepository,
	historyRepo *repository.RatingHistoryRepository,
	schoolRepo *repository.SchoolRepository,
	tournamentRepo *repository.TournamentRepository,
	compareSvc *CompareService,
	logger zerolog.Logger,
) *PlayerService {
	return &PlayerService{
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		historyRepo:    historyRepo,
		schoolRepo:     schoolRepo,
		tournamentRepo: tournamentRepo,
		compareSvc:     compareSvc,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *PlayerService) since() time.Time {
	return s.now().Add(-constants.RatingChangeWindow)
}

func (s *PlayerService) GetPlayer(ctx context.Context, id string) (*domain.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	s.logger.Debug().Str("player_id", id).Msg("getting player")

	stats, err := s.playerRepo.GetStats(ctx, id)
	if err != nil {
		s.logger.Debug().Err(err).Str("player_id", id).Msg("player lookup failed")
		return nil, err
	}

	matches, err := s.matchRepo.AllForPlayer(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("player_id", id).Msg("failed to load matches")
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	agg := rating.Aggregate{
		Record:       rating.RecordOf(matches, id),
		RatingChange: rating.RatingChange(matches, id, s.since()),
	}
	agg.Apply(stats)
	return stats, nil
}

// ListRankings pages through players by rating with their aggregates,
// taken from the analytics snapshot.
func (s *PlayerService) ListRankings(ctx context.Context, limit, offset int) ([]domain.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 || limit > constants.RankingLimit {
		limit = constants.RankingLimit
	}
	if offset < 0 {
		offset = 0
	}

	ranked, err := s.playerRepo.ListByRating(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list rankings")
		return nil, err
	}

	agg, err := s.compareSvc.Aggregates(ctx)
	if err != nil {
		return nil, err
	}
	for i := range ranked {
		agg[ranked[i].ID].Apply(&ranked[i])
	}

	s.logger.Debug().Int("count", len(ranked)).Int("offset", offset).Msg("rankings listed")
	return ranked, nil
}

func (s *PlayerService) SearchPlayers(ctx context.Context, query string) ([]domain.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.PlayerStats{}, nil
	}

	s.logger.Debug().Str("query", query).Msg("searching players")

	players, err := s.playerRepo.Search(ctx, query, constants.SearchSuggestionLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("failed to search players")
		return nil, err
	}

	s.logger.Info().Int("count", len(players)).Str("query", query).Msg("search completed")
	return players, nil
}

// MatchHistory pages through a player's matches from their side of the
// table, most recent first.
func (s *PlayerService) MatchHistory(ctx context.Context, id string, limit, offset int) ([]domain.MatchHistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 {
		limit = constants.MatchHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.playerRepo.Get(ctx, id); err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ByPlayer(ctx, id, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("player_id", id).Msg("failed to load match history")
		return nil, err
	}

	names := make(map[string]string)
	entries := make([]domain.MatchHistoryEntry, 0, len(matches))
	for _, m := range matches {
		oppID := m.Opponent(id)
		name, ok := names[oppID]
		if !ok {
			if opp, err := s.playerRepo.Get(ctx, oppID); err == nil {
				name = opp.Name
			} else {
				s.logger.Warn().Err(err).Str("opponent_id", oppID).Msg("opponent lookup failed")
			}
			names[oppID] = name
		}

		if e, ok := domain.HistoryFor(m, id, name); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (s *PlayerService) RatingHistory(ctx context.Context, id string, limit int) ([]domain.RatingHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 {
		limit = constants.MatchHistoryLimit
	}
	if _, err := s.playerRepo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.historyRepo.ByPlayer(ctx, id, limit)
}

// TournamentHistory lists the player's tournament finishes, most recent
// event first.
func (s *PlayerService) TournamentHistory(ctx context.Context, id string) ([]domain.TournamentHistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.playerRepo.Get(ctx, id); err != nil {
		return nil, err
	}

	history, err := s.tournamentRepo.HistoryByPlayer(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("player_id", id).Msg("failed to load tournament history")
		return nil, err
	}
	return history, nil
}

func (s *PlayerService) ListTournaments(ctx context.Context) ([]domain.Tournament, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.tournamentRepo.List(ctx)
}

func (s *PlayerService) ListSchools(ctx context.Context) ([]domain.School, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.schoolRepo.List(ctx)
}

func (s *PlayerService) CreatePlayer(ctx context.Context, params CreatePlayerParams) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, domain.ErrMissingName
	}
	if !domain.ValidClubDivision(params.ClubDivision) {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidDivision, params.ClubDivision)
	}
	if _, err := s.schoolRepo.Get(ctx, params.SchoolID); err != nil {
		return nil, err
	}

	r := params.Rating
	if r <= 0 {
		r = domain.DefaultRating
	}

	player := &domain.Player{
		Name:         name,
		SchoolID:     params.SchoolID,
		UniDivision:  params.UniDivision,
		ClubDivision: params.ClubDivision,
		Rating:       r,
	}
	if err := s.playerRepo.Upsert(ctx, player); err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to create player")
		return nil, err
	}

	s.compareSvc.Invalidate()
	s.logger.Info().Str("player_id", player.ID).Str("name", name).Msg("player created")
	return player, nil
}
