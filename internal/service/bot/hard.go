package bot

import (
	"math/rand"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/match"
)

// spacing the hard bot keeps while its attack is on cooldown
const hardSpacing = domain.AttackRange + 20

// hardPolicy blocks incoming swings, holds the special until it is safely in
// range and backs off while on cooldown.
func hardPolicy(obs Observation, rng *rand.Rand) match.Intent {
	if threatened(obs) && !obs.Self.IsAttacking() {
		return match.Intent{BlockActive: true}
	}

	if canAttack(obs) {
		if obs.Self.SpecialReady() && inRange(obs, true) {
			return match.Intent{SpecialPressed: true}
		}
		if inRange(obs, false) {
			return match.Intent{AttackPressed: true}
		}
		return approach(obs)
	}

	// on cooldown: step out to just past the opponent's reach
	if distance(obs) < hardSpacing {
		return retreat(obs)
	}
	if rng.Intn(30) == 0 {
		return match.Intent{Up: true}
	}
	return match.Intent{}
}
