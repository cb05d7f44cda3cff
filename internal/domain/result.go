package domain

import "time"

type EndReason string

const (
	ReasonKnockout EndReason = "knockout"
	ReasonTimeUp   EndReason = "time_up"
)

// Draw is the winner index reported when neither fighter wins.
const Draw = -1

// Result is the outcome of a match. Over is false while the match is running.
type Result struct {
	Over     bool          `json:"over"`
	Winner   int           `json:"winner"`
	Reason   EndReason     `json:"reason,omitempty"`
	Health   [2]int        `json:"health"`
	Duration time.Duration `json:"duration"`
}

func (r Result) IsDraw() bool {
	return r.Over && r.Winner == Draw
}

// CheckKnockout returns the winner when one fighter's health reached zero.
func CheckKnockout(fighters [2]*Fighter) (int, bool) {
	for i, f := range fighters {
		if f != nil && f.IsDefeated() {
			return 1 - i, true
		}
	}
	return 0, false
}

// TimeUpWinner decides a match whose countdown reached zero: strictly greater
// health wins, equal health is a draw.
func TimeUpWinner(fighters [2]*Fighter) int {
	h0, h1 := fighters[0].Health, fighters[1].Health
	switch {
	case h0 > h1:
		return HostIndex
	case h1 > h0:
		return GuestIndex
	default:
		return Draw
	}
}
