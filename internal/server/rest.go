package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"takurating/internal/constants"

	"connectrpc.com/connect"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// REST is a read-only JSON mirror of the RPC service for plain HTTP
// clients, plus the health check.
type REST struct {
	rpc    *RatingServer
	db     *sql.DB
	logger zerolog.Logger
}

func NewREST(rpc *RatingServer, sqlDB *sql.DB, logger zerolog.Logger) *REST {
	return &REST{rpc: rpc, db: sqlDB, logger: logger}
}

func (h *REST) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/players", h.listPlayers).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}", h.getPlayer).Methods(http.MethodGet)
	api.HandleFunc("/compare", h.compare).Methods(http.MethodGet)
}

func (h *REST) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.log(r).Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "takurating"})
}

// listPlayers serves rankings, or name suggestions when q is set.
func (h *REST) listPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if query := q.Get("q"); query != "" {
		resp, err := h.rpc.SearchPlayers(r.Context(), connect.NewRequest(&SearchPlayersRequest{Query: query}))
		respond(h, w, r, resp, err)
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	resp, err := h.rpc.ListRankings(r.Context(), connect.NewRequest(&ListRankingsRequest{Limit: limit, Offset: offset}))
	respond(h, w, r, resp, err)
}

func (h *REST) getPlayer(w http.ResponseWriter, r *http.Request) {
	resp, err := h.rpc.GetPlayer(r.Context(), connect.NewRequest(&GetPlayerRequest{ID: mux.Vars(r)["id"]}))
	respond(h, w, r, resp, err)
}

func (h *REST) compare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b := q.Get("a"), q.Get("b")
	if a == "" || b == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a and b are required"})
		return
	}
	top := constants.TopCommonOpponents
	if v, err := strconv.Atoi(q.Get("top")); err == nil {
		top = v
	}
	resp, err := h.rpc.Compare(r.Context(), connect.NewRequest(&CompareRequest{PlayerA: a, PlayerB: b, Top: top}))
	respond(h, w, r, resp, err)
}

// log prefers the request-scoped logger set by the request id middleware.
func (h *REST) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.logger
}

func respond[T any](h *REST, w http.ResponseWriter, r *http.Request, resp *connect.Response[T], err error) {
	if err != nil {
		status := httpStatus(connect.CodeOf(err))
		if status >= http.StatusInternalServerError {
			h.log(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		}
		var cerr *connect.Error
		msg := err.Error()
		if errors.As(err, &cerr) {
			msg = cerr.Message()
		}
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg)
}

func httpStatus(code connect.Code) int {
	switch code {
	case connect.CodeNotFound:
		return http.StatusNotFound
	case connect.CodeInvalidArgument:
		return http.StatusBadRequest
	case connect.CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case connect.CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
