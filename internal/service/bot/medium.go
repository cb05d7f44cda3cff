package bot

import (
	"math/rand"

	"github.com/iamasit07/duelsync/internal/match"
)

// mediumPolicy closes the gap, attacks on cooldown and spends the special as
// soon as it is charged.
func mediumPolicy(obs Observation, rng *rand.Rand) match.Intent {
	if canAttack(obs) {
		if obs.Self.SpecialReady() && inRange(obs, true) {
			return match.Intent{SpecialPressed: true}
		}
		if inRange(obs, false) {
			return match.Intent{AttackPressed: true}
		}
	}

	if !inRange(obs, false) {
		in := approach(obs)
		// the occasional hop keeps it from looking scripted
		in.Up = rng.Intn(40) == 0
		return in
	}
	return match.Intent{}
}
