package server

// Wire messages of takurating.v1.RatingService. Times are RFC 3339 strings,
// probabilities are fractions in [0, 1].

type School struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type Player struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	SchoolID        string  `json:"school_id"`
	SchoolName      string  `json:"school_name,omitempty"`
	SchoolCode      string  `json:"school_code,omitempty"`
	UniDivision     string  `json:"uni_division"`
	ClubDivision    int     `json:"club_division"`
	Rating          int     `json:"rating"`
	TotalMatches    int     `json:"total_matches"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	WinRate         float64 `json:"win_rate"`
	RatingChange30d int     `json:"rating_change_30d"`
}

type Match struct {
	ID                 string `json:"id"`
	WinnerID           string `json:"winner_id"`
	LoserID            string `json:"loser_id"`
	Score              string `json:"score"`
	PlayedAt           string `json:"played_at"`
	WinnerRatingBefore int    `json:"winner_rating_before"`
	LoserRatingBefore  int    `json:"loser_rating_before"`
	DeltaWinner        int    `json:"delta_winner"`
	DeltaLoser         int    `json:"delta_loser"`
	EventID            string `json:"event_id,omitempty"`
}

type MatchHistoryEntry struct {
	MatchID        string `json:"match_id"`
	PlayedAt       string `json:"played_at"`
	OpponentID     string `json:"opponent_id"`
	OpponentName   string `json:"opponent_name"`
	OpponentRating int    `json:"opponent_rating"`
	IsWinner       bool   `json:"is_winner"`
	MyScore        int    `json:"my_score"`
	OpponentScore  int    `json:"opponent_score"`
	RatingBefore   int    `json:"rating_before"`
	RatingAfter    int    `json:"rating_after"`
	Delta          int    `json:"delta"`
}

type RatingPoint struct {
	MatchID      string `json:"match_id"`
	OpponentID   string `json:"opponent_id"`
	IsWinner     bool   `json:"is_winner"`
	RatingBefore int    `json:"rating_before"`
	RatingAfter  int    `json:"rating_after"`
	Delta        int    `json:"delta"`
	CreatedAt    string `json:"created_at"`
}

type GetPlayerRequest struct {
	ID string `json:"id"`
}

type ListRankingsRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type PlayersResponse struct {
	Players []Player `json:"players"`
}

type SearchPlayersRequest struct {
	Query string `json:"query"`
}

type GetMatchHistoryRequest struct {
	PlayerID string `json:"player_id"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

type MatchHistoryResponse struct {
	Matches []MatchHistoryEntry `json:"matches"`
}

type GetRatingHistoryRequest struct {
	PlayerID string `json:"player_id"`
	Limit    int    `json:"limit"`
}

type RatingHistoryResponse struct {
	History []RatingPoint `json:"history"`
}

type ListSchoolsRequest struct{}

type SchoolsResponse struct {
	Schools []School `json:"schools"`
}

type CreatePlayerRequest struct {
	Name         string `json:"name"`
	SchoolID     string `json:"school_id"`
	UniDivision  string `json:"uni_division"`
	ClubDivision int    `json:"club_division"`
	Rating       int    `json:"rating"`
}

type PreviewDeltaRequest struct {
	WinnerID string `json:"winner_id"`
	LoserID  string `json:"loser_id"`
}

type PreviewDeltaResponse struct {
	WinnerRating int `json:"winner_rating"`
	LoserRating  int `json:"loser_rating"`
	DeltaWinner  int `json:"delta_winner"`
	DeltaLoser   int `json:"delta_loser"`
}

type RegisterMatchRequest struct {
	WinnerID string `json:"winner_id"`
	LoserID  string `json:"loser_id"`
	Score    string `json:"score"`
	PlayedAt string `json:"played_at,omitempty"`
	EventID  string `json:"event_id,omitempty"`
}

type CompareRequest struct {
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	// Top limits the common opponents returned; zero returns all of them.
	Top int `json:"top,omitempty"`
}

type HeadToHead struct {
	PlayerAWins  int `json:"player_a_wins"`
	PlayerBWins  int `json:"player_b_wins"`
	TotalMatches int `json:"total_matches"`
}

type CommonOpponent struct {
	OpponentID          string  `json:"opponent_id"`
	OpponentName        string  `json:"opponent_name"`
	PlayerAWins         int     `json:"player_a_wins"`
	PlayerATotalMatches int     `json:"player_a_total_matches"`
	PlayerBWins         int     `json:"player_b_wins"`
	PlayerBTotalMatches int     `json:"player_b_total_matches"`
	PlayerAWinRate      float64 `json:"player_a_win_rate"`
	PlayerBWinRate      float64 `json:"player_b_win_rate"`
}

type TriangleAnalysis struct {
	CommonOpponents   []CommonOpponent `json:"common_opponents"`
	PlayerAAvgWinRate float64          `json:"player_a_avg_win_rate"`
	PlayerBAvgWinRate float64          `json:"player_b_avg_win_rate"`
}

type CompareResponse struct {
	PlayerA               Player           `json:"player_a"`
	PlayerB               Player           `json:"player_b"`
	PlayerAWinProbability float64          `json:"player_a_win_probability"`
	PlayerBWinProbability float64          `json:"player_b_win_probability"`
	PlayerAWinPercent     int              `json:"player_a_win_percent"`
	PlayerBWinPercent     int              `json:"player_b_win_percent"`
	HeadToHead            HeadToHead       `json:"head_to_head"`
	Triangle              TriangleAnalysis `json:"triangle"`
}

type GetInsightsRequest struct{}

type Upset struct {
	Match  Match  `json:"match"`
	Winner Player `json:"winner"`
	Loser  Player `json:"loser"`
}

type InsightsResponse struct {
	BiggestUpset *Upset  `json:"biggest_upset,omitempty"`
	TopRiser     *Player `json:"top_riser,omitempty"`
}

type Tournament struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Location          string `json:"location"`
	EventDate         string `json:"event_date"`
	TotalParticipants int    `json:"total_participants"`
	TournamentType    string `json:"tournament_type"`
}

type ListTournamentsRequest struct{}

type TournamentsResponse struct {
	Tournaments []Tournament `json:"tournaments"`
}

type GetTournamentHistoryRequest struct {
	PlayerID string `json:"player_id"`
}

type TournamentHistoryEntry struct {
	TournamentID   string `json:"tournament_id"`
	TournamentName string `json:"tournament_name"`
	TournamentDate string `json:"tournament_date"`
	Location       string `json:"location"`
	TournamentType string `json:"tournament_type"`
	ResultType     string `json:"result_type"`
	GroupRank      *int   `json:"group_rank,omitempty"`
	Participants   int    `json:"total_participants"`
}

type TournamentHistoryResponse struct {
	History []TournamentHistoryEntry `json:"history"`
}

type SyncRequest struct{}

type SyncResponse struct {
	Schools     int `json:"schools"`
	Players     int `json:"players"`
	Tournaments int `json:"tournaments"`
	Results     int `json:"tournament_results"`
	Matches     int `json:"matches"`
	History     int `json:"history"`
	Skipped     int `json:"skipped"`
}
