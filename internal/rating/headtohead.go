package rating

import "takurating/internal/domain"

// HeadToHead is the record between two players restricted to the matches
// they played against each other. AWins + BWins == TotalMatches.
type HeadToHead struct {
	PlayerAWins  int
	PlayerBWins  int
	TotalMatches int
}

// HeadToHeadOf scans the match log for games between a and b. Order of
// the log does not matter.
func HeadToHeadOf(matches []domain.Match, a, b string) HeadToHead {
	var h HeadToHead
	for _, m := range matches {
		switch {
		case m.WinnerID == a && m.LoserID == b:
			h.PlayerAWins++
		case m.WinnerID == b && m.LoserID == a:
			h.PlayerBWins++
		default:
			continue
		}
		h.TotalMatches++
	}
	return h
}
