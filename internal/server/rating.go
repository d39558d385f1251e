package server

import (
	"context"
	"errors"
	"fmt"
	"takurating/internal/domain"
	"takurating/internal/rating"
	"takurating/internal/service"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

type RatingServer struct {
	playerSvc  *service.PlayerService
	matchSvc   *service.MatchService
	compareSvc *service.CompareService
	syncSvc    *service.SyncService
	logger     zerolog.Logger
}

func NewRatingServer(
	playerSvc *service.PlayerService,
	matchSvc *service.MatchService,
	compareSvc *service.CompareService,
	syncSvc *service.SyncService,
	logger zerolog.Logger,
) *RatingServer {
	return &RatingServer{
		playerSvc:  playerSvc,
		matchSvc:   matchSvc,
		compareSvc: compareSvc,
		syncSvc:    syncSvc,
		logger:     logger,
	}
}

// connectError maps service errors onto connect codes.
func connectError(err error) error {
	switch {
	case errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrSchoolNotFound),
		errors.Is(err, domain.ErrMatchNotFound),
		errors.Is(err, domain.ErrTournamentNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, domain.ErrMissingPlayer),
		errors.Is(err, domain.ErrMissingName),
		errors.Is(err, domain.ErrSamePlayer),
		errors.Is(err, domain.ErrSelfComparison),
		errors.Is(err, domain.ErrInvalidScore),
		errors.Is(err, domain.ErrInvalidDivision),
		errors.Is(err, domain.ErrInvalidTournament):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, service.ErrSyncDisabled):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func (s *RatingServer) GetPlayer(ctx context.Context, req *connect.Request[GetPlayerRequest]) (*connect.Response[Player], error) {
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}

	stats, err := s.playerSvc.GetPlayer(ctx, req.Msg.ID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(toPlayer(*stats)), nil
}

func (s *RatingServer) ListRankings(ctx context.Context, req *connect.Request[ListRankingsRequest]) (*connect.Response[PlayersResponse], error) {
	ranked, err := s.playerSvc.ListRankings(ctx, req.Msg.Limit, req.Msg.Offset)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&PlayersResponse{Players: toPlayers(ranked)}), nil
}

func (s *RatingServer) SearchPlayers(ctx context.Context, req *connect.Request[SearchPlayersRequest]) (*connect.Response[PlayersResponse], error) {
	found, err := s.playerSvc.SearchPlayers(ctx, req.Msg.Query)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&PlayersResponse{Players: toPlayers(found)}), nil
}

func (s *RatingServer) GetMatchHistory(ctx context.Context, req *connect.Request[GetMatchHistoryRequest]) (*connect.Response[MatchHistoryResponse], error) {
	entries, err := s.playerSvc.MatchHistory(ctx, req.Msg.PlayerID, req.Msg.Limit, req.Msg.Offset)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &MatchHistoryResponse{Matches: make([]MatchHistoryEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Matches = append(resp.Matches, MatchHistoryEntry{
			MatchID:        e.MatchID,
			PlayedAt:       e.PlayedAt.Format(time.RFC3339),
			OpponentID:     e.OpponentID,
			OpponentName:   e.OpponentName,
			OpponentRating: e.OpponentRating,
			IsWinner:       e.IsWinner,
			MyScore:        e.MyScore,
			OpponentScore:  e.OpponentScore,
			RatingBefore:   e.RatingBefore,
			RatingAfter:    e.RatingAfter,
			Delta:          e.Delta,
		})
	}
	return connect.NewResponse(resp), nil
}

func (s *RatingServer) GetRatingHistory(ctx context.Context, req *connect.Request[GetRatingHistoryRequest]) (*connect.Response[RatingHistoryResponse], error) {
	history, err := s.playerSvc.RatingHistory(ctx, req.Msg.PlayerID, req.Msg.Limit)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &RatingHistoryResponse{History: make([]RatingPoint, 0, len(history))}
	for _, h := range history {
		resp.History = append(resp.History, RatingPoint{
			MatchID:      h.MatchID,
			OpponentID:   h.OpponentID,
			IsWinner:     h.IsWinner,
			RatingBefore: h.RatingBefore,
			RatingAfter:  h.RatingAfter,
			Delta:        h.Delta,
			CreatedAt:    h.CreatedAt.Format(time.RFC3339),
		})
	}
	return connect.NewResponse(resp), nil
}

func (s *RatingServer) ListSchools(ctx context.Context, _ *connect.Request[ListSchoolsRequest]) (*connect.Response[SchoolsResponse], error) {
	schools, err := s.playerSvc.ListSchools(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &SchoolsResponse{Schools: make([]School, 0, len(schools))}
	for _, sc := range schools {
		resp.Schools = append(resp.Schools, School{ID: sc.ID, Name: sc.Name, Code: sc.Code})
	}
	return connect.NewResponse(resp), nil
}

func (s *RatingServer) CreatePlayer(ctx context.Context, req *connect.Request[CreatePlayerRequest]) (*connect.Response[Player], error) {
	p, err := s.playerSvc.CreatePlayer(ctx, service.CreatePlayerParams{
		Name:         req.Msg.Name,
		SchoolID:     req.Msg.SchoolID,
		UniDivision:  req.Msg.UniDivision,
		ClubDivision: req.Msg.ClubDivision,
		Rating:       req.Msg.Rating,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(toPlayer(domain.PlayerStats{Player: *p})), nil
}

func (s *RatingServer) PreviewDelta(ctx context.Context, req *connect.Request[PreviewDeltaRequest]) (*connect.Response[PreviewDeltaResponse], error) {
	preview, err := s.matchSvc.PreviewDelta(ctx, req.Msg.WinnerID, req.Msg.LoserID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&PreviewDeltaResponse{
		WinnerRating: preview.Winner.Rating,
		LoserRating:  preview.Loser.Rating,
		DeltaWinner:  preview.Delta.Winner,
		DeltaLoser:   preview.Delta.Loser,
	}), nil
}

func (s *RatingServer) RegisterMatch(ctx context.Context, req *connect.Request[RegisterMatchRequest]) (*connect.Response[Match], error) {
	var playedAt time.Time
	if req.Msg.PlayedAt != "" {
		t, err := time.Parse(time.RFC3339, req.Msg.PlayedAt)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid played_at: %w", err))
		}
		playedAt = t
	}

	m, err := s.matchSvc.RegisterMatch(ctx, service.RegisterMatchParams{
		WinnerID: req.Msg.WinnerID,
		LoserID:  req.Msg.LoserID,
		Score:    req.Msg.Score,
		PlayedAt: playedAt,
		EventID:  req.Msg.EventID,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(toMatch(*m)), nil
}

func (s *RatingServer) Compare(ctx context.Context, req *connect.Request[CompareRequest]) (*connect.Response[CompareResponse], error) {
	cmp, err := s.compareSvc.Compare(ctx, req.Msg.PlayerA, req.Msg.PlayerB)
	if err != nil {
		return nil, connectError(err)
	}
	if req.Msg.Top > 0 {
		cmp.Triangle.CommonOpponents = cmp.Triangle.Top(req.Msg.Top)
	}
	return connect.NewResponse(toCompareResponse(cmp)), nil
}

func (s *RatingServer) GetInsights(ctx context.Context, _ *connect.Request[GetInsightsRequest]) (*connect.Response[InsightsResponse], error) {
	insights, err := s.compareSvc.Insights(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &InsightsResponse{}
	if u := insights.BiggestUpset; u != nil {
		m := toMatch(u.Match)
		resp.BiggestUpset = &Upset{
			Match:  *m,
			Winner: *toPlayer(domain.PlayerStats{Player: u.Winner}),
			Loser:  *toPlayer(domain.PlayerStats{Player: u.Loser}),
		}
	}
	if insights.TopRiser != nil {
		resp.TopRiser = toPlayer(*insights.TopRiser)
	}
	return connect.NewResponse(resp), nil
}

func (s *RatingServer) Sync(ctx context.Context, _ *connect.Request[SyncRequest]) (*connect.Response[SyncResponse], error) {
	result, err := s.syncSvc.Sync(ctx)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&SyncResponse{
		Schools:     result.Schools,
		Players:     result.Players,
		Tournaments: result.Tournaments,
		Results:     result.Results,
		Matches:     result.Matches,
		History:     result.History,
		Skipped:     result.Skipped,
	}), nil
}

func (s *RatingServer) ListTournaments(ctx context.Context, _ *connect.Request[ListTournamentsRequest]) (*connect.Response[TournamentsResponse], error) {
	tournaments, err := s.playerSvc.ListTournaments(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &TournamentsResponse{Tournaments: make([]Tournament, 0, len(tournaments))}
	for _, t := range tournaments {
		resp.Tournaments = append(resp.Tournaments, Tournament{
			ID:                t.ID,
			Name:              t.Name,
			Location:          t.Location,
			EventDate:         t.EventDate.Format(time.RFC3339),
			TotalParticipants: t.TotalParticipants,
			TournamentType:    string(t.Type),
		})
	}
	return connect.NewResponse(resp), nil
}

func (s *RatingServer) GetTournamentHistory(ctx context.Context, req *connect.Request[GetTournamentHistoryRequest]) (*connect.Response[TournamentHistoryResponse], error) {
	history, err := s.playerSvc.TournamentHistory(ctx, req.Msg.PlayerID)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &TournamentHistoryResponse{History: make([]TournamentHistoryEntry, 0, len(history))}
	for _, e := range history {
		resp.History = append(resp.History, TournamentHistoryEntry{
			TournamentID:   e.TournamentID,
			TournamentName: e.TournamentName,
			TournamentDate: e.TournamentDate.Format(time.RFC3339),
			Location:       e.Location,
			TournamentType: string(e.Type),
			ResultType:     string(e.Result),
			GroupRank:      e.GroupRank,
			Participants:   e.Participants,
		})
	}
	return connect.NewResponse(resp), nil
}

func toPlayer(p domain.PlayerStats) *Player {
	return &Player{
		ID:              p.ID,
		Name:            p.Name,
		SchoolID:        p.SchoolID,
		SchoolName:      p.SchoolName,
		SchoolCode:      p.SchoolCode,
		UniDivision:     p.UniDivision,
		ClubDivision:    p.ClubDivision,
		Rating:          p.Rating,
		TotalMatches:    p.TotalMatches,
		Wins:            p.Wins,
		Losses:          p.Losses,
		WinRate:         p.WinRate,
		RatingChange30d: p.RatingChange30d,
	}
}

func toPlayers(stats []domain.PlayerStats) []Player {
	out := make([]Player, 0, len(stats))
	for _, st := range stats {
		out = append(out, *toPlayer(st))
	}
	return out
}

func toMatch(m domain.Match) *Match {
	return &Match{
		ID:                 m.ID,
		WinnerID:           m.WinnerID,
		LoserID:            m.LoserID,
		Score:              m.Score.String(),
		PlayedAt:           m.PlayedAt.Format(time.RFC3339),
		WinnerRatingBefore: m.WinnerRatingBefore,
		LoserRatingBefore:  m.LoserRatingBefore,
		DeltaWinner:        m.DeltaWinner,
		DeltaLoser:         m.DeltaLoser,
		EventID:            m.EventID,
	}
}

func toTriangle(t rating.TriangleAnalysis) TriangleAnalysis {
	out := TriangleAnalysis{
		CommonOpponents:   make([]CommonOpponent, 0, len(t.CommonOpponents)),
		PlayerAAvgWinRate: t.PlayerAAvgWinRate,
		PlayerBAvgWinRate: t.PlayerBAvgWinRate,
	}
	for _, c := range t.CommonOpponents {
		out.CommonOpponents = append(out.CommonOpponents, CommonOpponent{
			OpponentID:          c.OpponentID,
			OpponentName:        c.OpponentName,
			PlayerAWins:         c.PlayerAWins,
			PlayerATotalMatches: c.PlayerATotalMatches,
			PlayerBWins:         c.PlayerBWins,
			PlayerBTotalMatches: c.PlayerBTotalMatches,
			PlayerAWinRate:      c.PlayerAWinRate,
			PlayerBWinRate:      c.PlayerBWinRate,
		})
	}
	return out
}

func toCompareResponse(cmp *service.Comparison) *CompareResponse {
	return &CompareResponse{
		PlayerA:               *toPlayer(domain.PlayerStats{Player: cmp.PlayerA}),
		PlayerB:               *toPlayer(domain.PlayerStats{Player: cmp.PlayerB}),
		PlayerAWinProbability: cmp.Prediction.PlayerAWinProbability,
		PlayerBWinProbability: cmp.Prediction.PlayerBWinProbability,
		PlayerAWinPercent:     rating.Percent(cmp.Prediction.PlayerAWinProbability),
		PlayerBWinPercent:     rating.Percent(cmp.Prediction.PlayerBWinProbability),
		HeadToHead: HeadToHead{
			PlayerAWins:  cmp.HeadToHead.PlayerAWins,
			PlayerBWins:  cmp.HeadToHead.PlayerBWins,
			TotalMatches: cmp.HeadToHead.TotalMatches,
		},
		Triangle: toTriangle(cmp.Triangle),
	}
}
