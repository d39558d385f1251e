package rating

import "takurating/internal/domain"

type tally struct {
	wins  int
	total int
}

func (t tally) rate() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.wins) / float64(t.total)
}

// Index is a per-player view of a match log: for every player, the
// win/total tally against each opponent they have faced. Built once in
// O(n), it answers head-to-head queries in O(1) and common-opponent
// queries in O(m) over the roster.
type Index struct {
	vs      map[string]map[string]tally
	matches int
}

func NewIndex(matches []domain.Match) *Index {
	idx := &Index{
		vs:      make(map[string]map[string]tally),
		matches: len(matches),
	}
	for _, m := range matches {
		if m.WinnerID == m.LoserID {
			continue
		}
		idx.add(m.WinnerID, m.LoserID, true)
		idx.add(m.LoserID, m.WinnerID, false)
	}
	return idx
}

func (idx *Index) add(player, opponent string, won bool) {
	opp, ok := idx.vs[player]
	if !ok {
		opp = make(map[string]tally)
		idx.vs[player] = opp
	}
	t := opp[opponent]
	t.total++
	if won {
		t.wins++
	}
	opp[opponent] = t
}

// Len is the number of matches the index was built from.
func (idx *Index) Len() int {
	return idx.matches
}

func (idx *Index) against(player, opponent string) tally {
	return idx.vs[player][opponent]
}

func (idx *Index) HeadToHead(a, b string) HeadToHead {
	if a == b {
		return HeadToHead{}
	}
	t := idx.against(a, b)
	return HeadToHead{
		PlayerAWins:  t.wins,
		PlayerBWins:  t.total - t.wins,
		TotalMatches: t.total,
	}
}
