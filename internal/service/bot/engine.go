// Package bot produces scripted input for a headless peer. Each difficulty is
// a policy that turns what the peer can see into one intent per tick.
package bot

import (
	"math/rand"
	"time"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/match"
)

// Observation is the state a policy decides from.
type Observation struct {
	Self     domain.Fighter
	Opponent domain.Fighter
	Now      time.Duration
}

type Policy func(obs Observation, rng *rand.Rand) match.Intent

// Bot is an intent source driven by one policy. Not safe for concurrent use;
// the peer runtime calls it from its own goroutine.
type Bot struct {
	difficulty string
	policy     Policy
	rng        *rand.Rand
}

func New(difficulty string, seed int64) *Bot {
	return &Bot{
		difficulty: difficulty,
		policy:     policyFor(difficulty),
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (b *Bot) Difficulty() string { return b.difficulty }

// NextIntent returns the input for this tick.
func (b *Bot) NextIntent(self, opponent *domain.Fighter, now time.Duration) match.Intent {
	if self == nil || opponent == nil {
		return match.Intent{}
	}
	return b.policy(Observation{Self: *self, Opponent: *opponent, Now: now}, b.rng)
}

// policyFor selects the policy based on difficulty
func policyFor(difficulty string) Policy {
	switch difficulty {
	case "easy":
		return easyPolicy
	case "medium":
		return mediumPolicy
	case "hard":
		return hardPolicy
	case "idle":
		return func(Observation, *rand.Rand) match.Intent { return match.Intent{} }
	default:
		return mediumPolicy
	}
}
