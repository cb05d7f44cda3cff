package bot

import (
	"math/rand"

	"github.com/iamasit07/duelsync/internal/match"
)

// easyPolicy wanders and swings whenever it happens to be in range.
func easyPolicy(obs Observation, rng *rand.Rand) match.Intent {
	if inRange(obs, false) && canAttack(obs) && rng.Intn(4) == 0 {
		return match.Intent{AttackPressed: true}
	}

	switch rng.Intn(10) {
	case 0, 1, 2:
		return match.Intent{Left: true}
	case 3, 4, 5:
		return match.Intent{Right: true}
	case 6:
		return match.Intent{Up: true}
	default:
		return match.Intent{}
	}
}
