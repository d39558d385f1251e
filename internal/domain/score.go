package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

var scorePattern = regexp.MustCompile(`^(\d+):(\d+)$`)

// Score is a "winner:loser" game count such as 3:1.
type Score struct {
	Winner int
	Loser  int
}

func ParseScore(s string) (Score, error) {
	m := scorePattern.FindStringSubmatch(s)
	if m == nil {
		return Score{}, fmt.Errorf("%w: %q, expected W:L such as 3:1", ErrInvalidScore, s)
	}

	w, err := strconv.Atoi(m[1])
	if err != nil {
		return Score{}, fmt.Errorf("%w: %q: %v", ErrInvalidScore, s, err)
	}
	l, err := strconv.Atoi(m[2])
	if err != nil {
		return Score{}, fmt.Errorf("%w: %q: %v", ErrInvalidScore, s, err)
	}
	if w <= l {
		return Score{}, fmt.Errorf("%w: %q, winner must take more games", ErrInvalidScore, s)
	}

	return Score{Winner: w, Loser: l}, nil
}

func (s Score) String() string {
	return fmt.Sprintf("%d:%d", s.Winner, s.Loser)
}
