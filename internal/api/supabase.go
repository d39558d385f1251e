package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"takurating/internal/config"
	"takurating/internal/constants"
	"takurating/internal/rating"
	"time"

	"github.com/valyala/fasthttp"
)

const pageSize = 1000

// SupabaseClient talks to the hosted Postgres backend through its
// PostgREST endpoints: table reads under /rest/v1/<table> and database
// functions under /rest/v1/rpc/<name>.
type SupabaseClient struct {
	baseURL string
	apiKey  string
	client  *fasthttp.Client
}

func NewSupabaseClient(cfg *config.Config) *SupabaseClient {
	return &SupabaseClient{
		baseURL: strings.TrimRight(cfg.SupabaseURL, "/"),
		apiKey:  cfg.SupabaseKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *SupabaseClient) Enabled() bool {
	return c.baseURL != ""
}

func (c *SupabaseClient) ListSchools(ctx context.Context) ([]SchoolRow, error) {
	return listAll[SchoolRow](ctx, c, "schools", "id")
}

func (c *SupabaseClient) ListPlayers(ctx context.Context) ([]PlayerRow, error) {
	return listAll[PlayerRow](ctx, c, "players", "id")
}

func (c *SupabaseClient) ListMatches(ctx context.Context) ([]MatchRow, error) {
	return listAll[MatchRow](ctx, c, "matches", "played_at")
}

func (c *SupabaseClient) ListRatingHistory(ctx context.Context) ([]RatingHistoryRow, error) {
	return listAll[RatingHistoryRow](ctx, c, "rating_history", "created_at")
}

func (c *SupabaseClient) ListTournaments(ctx context.Context) ([]TournamentRow, error) {
	return listAll[TournamentRow](ctx, c, "tournaments", "event_date")
}

func (c *SupabaseClient) ListTournamentResults(ctx context.Context) ([]TournamentResultRow, error) {
	return listAll[TournamentResultRow](ctx, c, "tournament_results", "created_at")
}

// CalculateUSATTDelta calls the calculate_usatt_delta database function.
func (c *SupabaseClient) CalculateUSATTDelta(ctx context.Context, winnerRating, loserRating int) (*DeltaRow, error) {
	rows, err := doRequest[[]DeltaRow](ctx, c, fasthttp.MethodPost, c.baseURL+"/rest/v1/rpc/calculate_usatt_delta", DeltaParams{
		WinnerRating: winnerRating,
		LoserRating:  loserRating,
	})
	if err != nil {
		return nil, err
	}
	if len(*rows) == 0 {
		return nil, fmt.Errorf("calculate_usatt_delta returned no rows")
	}
	return &(*rows)[0], nil
}

// Delta lets the database function serve as a rating.DeltaStrategy.
func (c *SupabaseClient) Delta(ctx context.Context, winnerRating, loserRating int) (rating.Delta, error) {
	row, err := c.CalculateUSATTDelta(ctx, winnerRating, loserRating)
	if err != nil {
		return rating.Delta{}, err
	}
	return rating.Delta{Winner: row.DeltaWinner, Loser: row.DeltaLoser}, nil
}

func listAll[T any](ctx context.Context, c *SupabaseClient, table, order string) ([]T, error) {
	var all []T
	for offset := 0; ; offset += pageSize {
		q := url.Values{}
		q.Set("select", "*")
		q.Set("order", pageOrder(order))
		q.Set("limit", fmt.Sprint(pageSize))
		q.Set("offset", fmt.Sprint(offset))

		page, err := doRequest[[]T](ctx, c, fasthttp.MethodGet, c.baseURL+"/rest/v1/"+table+"?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", table, err)
		}
		all = append(all, *page...)
		if len(*page) < pageSize {
			return all, nil
		}
	}
}

// pageOrder appends id as a tie-breaker so offset pages stay stable when
// the sort column has duplicates.
func pageOrder(column string) string {
	if column == "id" {
		return "id.asc"
	}
	return column + ".asc,id.asc"
}

func doRequest[T any](ctx context.Context, client *SupabaseClient, method, endpoint string, body any) (*T, error) {
	if !client.Enabled() {
		return nil, fmt.Errorf("supabase is not configured")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint)
	req.Header.SetMethod(method)
	req.Header.Set("apikey", client.apiKey)
	req.Header.Set("Authorization", "Bearer "+client.apiKey)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.DoTimeout(req, resp, constants.ExternalAPITimeout); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type SchoolRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

type PlayerRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SchoolID     string    `json:"school_id"`
	UniDivision  string    `json:"uni_division"`
	ClubDivision int       `json:"club_division"`
	Rating       int       `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type MatchRow struct {
	ID          string    `json:"id"`
	WinnerID    string    `json:"winner_id"`
	LoserID     string    `json:"loser_id"`
	Score       string    `json:"score"`
	PlayedAt    time.Time `json:"played_at"`
	DeltaWinner int       `json:"delta_winner"`
	DeltaLoser  int       `json:"delta_loser"`
	EventID     *string   `json:"event_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type RatingHistoryRow struct {
	ID           string    `json:"id"`
	MatchID      string    `json:"match_id"`
	PlayerID     string    `json:"player_id"`
	OpponentID   string    `json:"opponent_id"`
	IsWinner     bool      `json:"is_winner"`
	RatingBefore int       `json:"rating_before"`
	RatingAfter  int       `json:"rating_after"`
	Delta        int       `json:"delta"`
	CreatedAt    time.Time `json:"created_at"`
}

type TournamentRow struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Location          string    `json:"location"`
	EventDate         time.Time `json:"event_date"`
	TotalParticipants int       `json:"total_participants"`
	TournamentType    string    `json:"tournament_type"`
	CreatedAt         time.Time `json:"created_at"`
}

type TournamentResultRow struct {
	ID           string    `json:"id"`
	TournamentID string    `json:"tournament_id"`
	PlayerID     string    `json:"player_id"`
	ResultType   string    `json:"result_type"`
	GroupRank    *int      `json:"group_rank"`
	CreatedAt    time.Time `json:"created_at"`
}

type DeltaParams struct {
	WinnerRating int `json:"winner_rating"`
	LoserRating  int `json:"loser_rating"`
}

type DeltaRow struct {
	DeltaWinner int `json:"delta_winner"`
	DeltaLoser  int `json:"delta_loser"`
}
