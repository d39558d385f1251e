package domain

import "time"

type TournamentType string

const (
	TournamentOpen         TournamentType = "open"
	TournamentLeague       TournamentType = "league"
	TournamentChampionship TournamentType = "championship"
)

func (t TournamentType) Valid() bool {
	switch t {
	case TournamentOpen, TournamentLeague, TournamentChampionship:
		return true
	}
	return false
}

// ResultType is how far a player got in a tournament.
type ResultType string

const (
	ResultWinner       ResultType = "winner"
	ResultRunnerUp     ResultType = "runner_up"
	ResultSemiFinal    ResultType = "semi_final"
	ResultQuarterFinal ResultType = "quarter_final"
	ResultRound16      ResultType = "round_16"
	ResultRound32      ResultType = "round_32"
	ResultGroupStage   ResultType = "group_stage"
)

func (r ResultType) Valid() bool {
	switch r {
	case ResultWinner, ResultRunnerUp, ResultSemiFinal, ResultQuarterFinal,
		ResultRound16, ResultRound32, ResultGroupStage:
		return true
	}
	return false
}

type Tournament struct {
	ID                string
	Name              string
	Location          string
	EventDate         time.Time
	TotalParticipants int
	Type              TournamentType
	CreatedAt         time.Time
}

type TournamentResult struct {
	ID           string
	TournamentID string
	PlayerID     string
	Result       ResultType
	GroupRank    *int // only for group stage finishes
	CreatedAt    time.Time
}

// TournamentHistoryEntry is one tournament result joined with its event.
type TournamentHistoryEntry struct {
	TournamentID   string
	TournamentName string
	TournamentDate time.Time
	Location       string
	Type           TournamentType
	Result         ResultType
	GroupRank      *int
	Participants   int
}
