package server

import (
	"net/http"

	"connectrpc.com/connect"
)

const RatingServiceName = "takurating.v1.RatingService"

// RatingServicePath is the mount point of every procedure.
const RatingServicePath = "/" + RatingServiceName + "/"

const (
	GetPlayerProcedure        = RatingServicePath + "GetPlayer"
	ListRankingsProcedure     = RatingServicePath + "ListRankings"
	SearchPlayersProcedure    = RatingServicePath + "SearchPlayers"
	GetMatchHistoryProcedure  = RatingServicePath + "GetMatchHistory"
	GetRatingHistoryProcedure = RatingServicePath + "GetRatingHistory"
	ListSchoolsProcedure      = RatingServicePath + "ListSchools"
	CreatePlayerProcedure     = RatingServicePath + "CreatePlayer"
	PreviewDeltaProcedure     = RatingServicePath + "PreviewDelta"
	RegisterMatchProcedure    = RatingServicePath + "RegisterMatch"
	CompareProcedure          = RatingServicePath + "Compare"
	GetInsightsProcedure      = RatingServicePath + "GetInsights"
	SyncProcedure             = RatingServicePath + "Sync"

	ListTournamentsProcedure      = RatingServicePath + "ListTournaments"
	GetTournamentHistoryProcedure = RatingServicePath + "GetTournamentHistory"
)

// NewRatingServiceHandler builds the connect handler for every procedure
// of s. The returned path is where the handler should be mounted.
func NewRatingServiceHandler(s *RatingServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetPlayerProcedure, connect.NewUnaryHandler(GetPlayerProcedure, s.GetPlayer, opts...))
	mux.Handle(ListRankingsProcedure, connect.NewUnaryHandler(ListRankingsProcedure, s.ListRankings, opts...))
	mux.Handle(SearchPlayersProcedure, connect.NewUnaryHandler(SearchPlayersProcedure, s.SearchPlayers, opts...))
	mux.Handle(GetMatchHistoryProcedure, connect.NewUnaryHandler(GetMatchHistoryProcedure, s.GetMatchHistory, opts...))
	mux.Handle(GetRatingHistoryProcedure, connect.NewUnaryHandler(GetRatingHistoryProcedure, s.GetRatingHistory, opts...))
	mux.Handle(ListSchoolsProcedure, connect.NewUnaryHandler(ListSchoolsProcedure, s.ListSchools, opts...))
	mux.Handle(CreatePlayerProcedure, connect.NewUnaryHandler(CreatePlayerProcedure, s.CreatePlayer, opts...))
	mux.Handle(PreviewDeltaProcedure, connect.NewUnaryHandler(PreviewDeltaProcedure, s.PreviewDelta, opts...))
	mux.Handle(RegisterMatchProcedure, connect.NewUnaryHandler(RegisterMatchProcedure, s.RegisterMatch, opts...))
	mux.Handle(CompareProcedure, connect.NewUnaryHandler(CompareProcedure, s.Compare, opts...))
	mux.Handle(GetInsightsProcedure, connect.NewUnaryHandler(GetInsightsProcedure, s.GetInsights, opts...))
	mux.Handle(SyncProcedure, connect.NewUnaryHandler(SyncProcedure, s.Sync, opts...))
	mux.Handle(ListTournamentsProcedure, connect.NewUnaryHandler(ListTournamentsProcedure, s.ListTournaments, opts...))
	mux.Handle(GetTournamentHistoryProcedure, connect.NewUnaryHandler(GetTournamentHistoryProcedure, s.GetTournamentHistory, opts...))

	return RatingServicePath, mux
}
