package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"takurating/internal/api"
	"takurating/internal/constants"
	"takurating/internal/domain"
	"takurating/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrSyncDisabled = errors.New("supabase sync is not configured")

type SyncResult struct {
	Schools     int
	Players     int
	Tournaments int
	Results     int
	Matches     int
	History     int
	Skipped     int
}

type SyncService struct {
	db             *sql.DB
	client         *api.SupabaseClient
	schoolRepo     *repository.SchoolRepository
	playerRepo     *repository.PlayerRepository
	matchRepo      *repository.MatchRepository
	historyRepo    *repository.RatingHistoryRepository
	tournamentRepo *repository.TournamentRepository
	compareSvc     *CompareService
	logger         zerolog.Logger
}

func NewSyncService(
	sqlDB *sql.DB,
	client *api.SupabaseClient,
	schoolRepo *repository.SchoolRepository,
	playerRepo *repository.PlayerRepository,
	matchRepo *repository.MatchRepository,
	historyRepo *repository.RatingHistoryRepository,
	tournamentRepo *repository.TournamentRepository,
	compareSvc *CompareService,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		db:             sqlDB,
		client:         client,
		schoolRepo:     schoolRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		historyRepo:    historyRepo,
		tournamentRepo: tournamentRepo,
		compareSvc:     compareSvc,
		logger:         logger,
	}
}

type remoteData struct {
	schools     []api.SchoolRow
	players     []api.PlayerRow
	tournaments []api.TournamentRow
	results     []api.TournamentResultRow
	matches     []api.MatchRow
	history     []api.RatingHistoryRow
}

func (s *SyncService) fetch(ctx context.Context) (*remoteData, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	data := &remoteData{}

	g.Go(func() error {
		var err error
		data.schools, err = s.client.ListSchools(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		data.players, err = s.client.ListPlayers(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		data.tournaments, err = s.client.ListTournaments(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		data.results, err = s.client.ListTournamentResults(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		data.matches, err = s.client.ListMatches(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		data.history, err = s.client.ListRatingHistory(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

type historyKey struct {
	matchID  string
	playerID string
}

// idSet is the set of ids a synced row may reference: the local rows plus
// the hosted rows accepted in this run.
type idSet map[string]struct{}

func (ids idSet) add(id string) { ids[id] = struct{}{} }

func (ids idSet) has(id string) bool {
	_, ok := ids[id]
	return ok
}

// Sync mirrors the hosted tables into the local store. Schools, players,
// tournaments and placements are upserted; matches and rating history are
// append-only and rows already present locally are left untouched. Rows
// that fail validation or reference a row that is neither local nor
// accepted are skipped and counted, along with the rows that depend on
// them. A match is only accepted when both sides have a history row, since
// the before-ratings come from there.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	if !s.client.Enabled() {
		return nil, ErrSyncDisabled
	}

	s.logger.Info().Msg("sync started")

	data, err := s.fetch(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch from supabase")
		return nil, fmt.Errorf("failed to fetch from supabase: %w", err)
	}

	before := make(map[historyKey]int, len(data.history))
	for _, h := range data.history {
		before[historyKey{h.MatchID, h.PlayerID}] = h.RatingBefore
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	schoolIDs, playerIDs, tournamentIDs, err := s.localIDs(ctx, tx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	skip := func(event *zerolog.Event, msg string) {
		event.Msg(msg)
		result.Skipped++
	}

	schools := make([]domain.School, 0, len(data.schools))
	for _, row := range data.schools {
		schools = append(schools, domain.School{ID: row.ID, Name: row.Name, Code: row.Code, CreatedAt: row.CreatedAt})
		schoolIDs.add(row.ID)
	}

	players := make([]domain.Player, 0, len(data.players))
	for _, row := range data.players {
		if !domain.ValidClubDivision(row.ClubDivision) {
			skip(s.logger.Warn().Str("player_id", row.ID).Int("club_division", row.ClubDivision), "skipping player with invalid division")
			continue
		}
		if !schoolIDs.has(row.SchoolID) {
			skip(s.logger.Warn().Str("player_id", row.ID).Str("school_id", row.SchoolID), "skipping player with unknown school")
			continue
		}
		players = append(players, domain.Player{
			ID:           row.ID,
			Name:         row.Name,
			SchoolID:     row.SchoolID,
			UniDivision:  row.UniDivision,
			ClubDivision: row.ClubDivision,
			Rating:       row.Rating,
			CreatedAt:    row.CreatedAt,
			UpdatedAt:    row.UpdatedAt,
		})
		playerIDs.add(row.ID)
	}

	tournaments := make([]domain.Tournament, 0, len(data.tournaments))
	for _, row := range data.tournaments {
		typ := domain.TournamentType(row.TournamentType)
		if !typ.Valid() {
			skip(s.logger.Warn().Str("tournament_id", row.ID).Str("type", row.TournamentType), "skipping tournament with invalid type")
			continue
		}
		tournaments = append(tournaments, domain.Tournament{
			ID:                row.ID,
			Name:              row.Name,
			Location:          row.Location,
			EventDate:         row.EventDate,
			TotalParticipants: row.TotalParticipants,
			Type:              typ,
			CreatedAt:         row.CreatedAt,
		})
		tournamentIDs.add(row.ID)
	}

	results := make([]domain.TournamentResult, 0, len(data.results))
	for _, row := range data.results {
		res := domain.ResultType(row.ResultType)
		if !res.Valid() || !tournamentIDs.has(row.TournamentID) || !playerIDs.has(row.PlayerID) {
			skip(s.logger.Warn().Str("result_id", row.ID).Str("tournament_id", row.TournamentID).Str("player_id", row.PlayerID), "skipping invalid tournament result")
			continue
		}
		results = append(results, domain.TournamentResult{
			ID:           row.ID,
			TournamentID: row.TournamentID,
			PlayerID:     row.PlayerID,
			Result:       res,
			GroupRank:    row.GroupRank,
			CreatedAt:    row.CreatedAt,
		})
	}

	accepted := make(idSet, len(data.matches))
	matches := make([]domain.Match, 0, len(data.matches))
	for _, row := range data.matches {
		score, err := domain.ParseScore(row.Score)
		if err != nil || row.WinnerID == row.LoserID || !playerIDs.has(row.WinnerID) || !playerIDs.has(row.LoserID) {
			skip(s.logger.Warn().Err(err).Str("match_id", row.ID), "skipping invalid match")
			continue
		}
		var eventID string
		if row.EventID != nil {
			eventID = *row.EventID
		}
		if eventID != "" && !tournamentIDs.has(eventID) {
			skip(s.logger.Warn().Str("match_id", row.ID).Str("event_id", eventID), "skipping match with unknown tournament")
			continue
		}
		winnerBefore, okWinner := before[historyKey{row.ID, row.WinnerID}]
		loserBefore, okLoser := before[historyKey{row.ID, row.LoserID}]
		if !okWinner || !okLoser {
			skip(s.logger.Warn().Str("match_id", row.ID).Bool("winner_history", okWinner).Bool("loser_history", okLoser), "skipping match without rating history for both players")
			continue
		}
		matches = append(matches, domain.Match{
			ID:                 row.ID,
			WinnerID:           row.WinnerID,
			LoserID:            row.LoserID,
			Score:              score,
			PlayedAt:           row.PlayedAt,
			WinnerRatingBefore: winnerBefore,
			LoserRatingBefore:  loserBefore,
			DeltaWinner:        row.DeltaWinner,
			DeltaLoser:         row.DeltaLoser,
			EventID:            eventID,
			CreatedAt:          row.CreatedAt,
		})
		accepted.add(row.ID)
	}

	records := make([]domain.RatingHistory, 0, len(data.history))
	for _, h := range data.history {
		if !accepted.has(h.MatchID) {
			continue
		}
		records = append(records, domain.RatingHistory{
			ID:           h.ID,
			MatchID:      h.MatchID,
			PlayerID:     h.PlayerID,
			OpponentID:   h.OpponentID,
			IsWinner:     h.IsWinner,
			RatingBefore: h.RatingBefore,
			RatingAfter:  h.RatingAfter,
			Delta:        h.Delta,
			CreatedAt:    h.CreatedAt,
		})
	}

	if err := s.schoolRepo.WithTx(tx).UpsertBatch(ctx, schools); err != nil {
		return nil, err
	}
	if err := s.playerRepo.WithTx(tx).UpsertBatch(ctx, players); err != nil {
		return nil, err
	}
	tournamentRepo := s.tournamentRepo.WithTx(tx)
	if err := tournamentRepo.UpsertBatch(ctx, tournaments); err != nil {
		return nil, err
	}
	if err := tournamentRepo.UpsertResults(ctx, results); err != nil {
		return nil, err
	}
	if err := s.matchRepo.WithTx(tx).InsertBatch(ctx, matches); err != nil {
		return nil, err
	}
	if err := s.historyRepo.WithTx(tx).Append(ctx, records); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sync: %w", err)
	}

	result.Schools = len(schools)
	result.Players = len(players)
	result.Tournaments = len(tournaments)
	result.Results = len(results)
	result.Matches = len(matches)
	result.History = len(records)

	s.compareSvc.Invalidate()

	s.logger.Info().
		Int("schools", result.Schools).
		Int("players", result.Players).
		Int("tournaments", result.Tournaments).
		Int("results", result.Results).
		Int("matches", result.Matches).
		Int("history", result.History).
		Int("skipped", result.Skipped).
		Msg("sync completed")

	return result, nil
}

func (s *SyncService) localIDs(ctx context.Context, tx *sql.Tx) (schools, players, tournaments idSet, err error) {
	localSchools, err := s.schoolRepo.WithTx(tx).List(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list local schools: %w", err)
	}
	localPlayers, err := s.playerRepo.WithTx(tx).All(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list local players: %w", err)
	}
	localTournaments, err := s.tournamentRepo.WithTx(tx).List(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list local tournaments: %w", err)
	}

	schools, players, tournaments = make(idSet), make(idSet), make(idSet)
	for _, sc := range localSchools {
		schools.add(sc.ID)
	}
	for _, p := range localPlayers {
		players.add(p.ID)
	}
	for _, t := range localTournaments {
		tournaments.add(t.ID)
	}
	return schools, players, tournaments, nil
}
