package bot

import (
	"math"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/match"
)

// distance is the horizontal gap the combat range check uses.
func distance(obs Observation) float64 {
	return math.Abs(obs.Self.Position.X - obs.Opponent.Position.X)
}

func inRange(obs Observation, special bool) bool {
	return distance(obs) <= domain.ActionRange(special)
}

func canAttack(obs Observation) bool {
	return !obs.Self.IsAttacking() && obs.Self.CooldownElapsed(obs.Now)
}

// approach walks towards the opponent.
func approach(obs Observation) match.Intent {
	if obs.Opponent.Position.X < obs.Self.Position.X {
		return match.Intent{Left: true}
	}
	return match.Intent{Right: true}
}

// retreat walks away from the opponent.
func retreat(obs Observation) match.Intent {
	in := approach(obs)
	in.Left, in.Right = in.Right, in.Left
	return in
}

// threatened reports whether the opponent is swinging at us from close enough
// to land.
func threatened(obs Observation) bool {
	if !obs.Opponent.IsAttacking() {
		return false
	}
	return distance(obs) <= domain.ActionRange(obs.Opponent.Animation == domain.AnimSpecial)
}
