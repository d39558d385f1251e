package domain

import "errors"

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrSchoolNotFound     = errors.New("school not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMissingPlayer      = errors.New("winner and loser are required")
	ErrMissingName        = errors.New("player name is required")
	ErrSamePlayer         = errors.New("winner and loser must be different players")
	ErrSelfComparison     = errors.New("cannot compare a player with themselves")
	ErrInvalidScore       = errors.New("invalid score")
	ErrInvalidDivision    = errors.New("club division must be between -2 and 8")
	ErrInvalidTournament  = errors.New("invalid tournament")
	ErrUnknownStrategy    = errors.New("unknown delta strategy")
)
