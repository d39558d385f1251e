package domain

import (
	"time"
)

const (
	DefaultRating   = 1500
	MinClubDivision = -2
	MaxClubDivision = 8
)

type School struct {
	ID        string
	Name      string
	Code      string
	CreatedAt time.Time
}

type Player struct {
	ID           string
	Name         string
	SchoolID     string
	UniDivision  string
	ClubDivision int // -2 (top) .. 8 (newcomer)
	Rating       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlayerStats is a player joined with its school and the aggregates
// derived from the match log.
type PlayerStats struct {
	Player
	SchoolName      string
	SchoolCode      string
	TotalMatches    int
	Wins            int
	Losses          int
	WinRate         float64 // percentage, one decimal
	RatingChange30d int
}

type Match struct {
	ID                 string
	WinnerID           string
	LoserID            string
	Score              Score
	PlayedAt           time.Time
	WinnerRatingBefore int
	LoserRatingBefore  int
	DeltaWinner        int
	DeltaLoser         int
	CreatedAt          time.Time
	EventID            string // tournament the match was played at, if any
}

// Involves reports whether the player took part in the match.
func (m Match) Involves(playerID string) bool {
	return m.WinnerID == playerID || m.LoserID == playerID
}

// Opponent returns the other side of the match for playerID.
func (m Match) Opponent(playerID string) string {
	if m.WinnerID == playerID {
		return m.LoserID
	}
	return m.WinnerID
}

type RatingHistory struct {
	ID           string
	MatchID      string
	PlayerID     string
	OpponentID   string
	IsWinner     bool
	RatingBefore int
	RatingAfter  int
	Delta        int
	CreatedAt    time.Time
}

// MatchHistoryEntry is a match seen from one player's side.
type MatchHistoryEntry struct {
	MatchID        string
	PlayedAt       time.Time
	OpponentID     string
	OpponentName   string
	OpponentRating int
	IsWinner       bool
	MyScore        int
	OpponentScore  int
	RatingBefore   int
	RatingAfter    int
	Delta          int
}

// HistoryFor builds the player's view of m. The second value is false
// when the player did not take part.
func HistoryFor(m Match, playerID, opponentName string) (MatchHistoryEntry, bool) {
	if !m.Involves(playerID) {
		return MatchHistoryEntry{}, false
	}

	e := MatchHistoryEntry{
		MatchID:      m.ID,
		PlayedAt:     m.PlayedAt,
		OpponentID:   m.Opponent(playerID),
		OpponentName: opponentName,
	}
	if m.WinnerID == playerID {
		e.IsWinner = true
		e.OpponentRating = m.LoserRatingBefore
		e.MyScore = m.Score.Winner
		e.OpponentScore = m.Score.Loser
		e.RatingBefore = m.WinnerRatingBefore
		e.Delta = m.DeltaWinner
	} else {
		e.OpponentRating = m.WinnerRatingBefore
		e.MyScore = m.Score.Loser
		e.OpponentScore = m.Score.Winner
		e.RatingBefore = m.LoserRatingBefore
		e.Delta = m.DeltaLoser
	}
	e.RatingAfter = e.RatingBefore + e.Delta
	return e, true
}

func ValidClubDivision(division int) bool {
	return division >= MinClubDivision && division <= MaxClubDivision
}
