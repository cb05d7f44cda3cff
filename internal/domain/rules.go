package domain

import "time"

// Combat and movement tuning. One set of constants is used everywhere a value
// is needed; nothing else in the tree hard-codes these numbers.
const (
	MaxHealth = 100

	AttackDamage  = 10
	SpecialDamage = 30

	// Horizontal distance, inclusive.
	AttackRange  = 150.0
	SpecialRange = 180.0

	AttackCooldown   = 500 * time.Millisecond
	SpecialThreshold = 3

	AttackDuration  = 200 * time.Millisecond
	SpecialDuration = 900 * time.Millisecond

	WalkSpeed    = 200.0  // px/s
	JumpVelocity = -420.0 // px/s, negative is up
	Gravity      = 1100.0 // px/s^2

	DefaultMatchDuration = 60 * time.Second
)

// ClampHealth keeps a health value inside [0, MaxHealth].
func ClampHealth(h int) int {
	if h < 0 {
		return 0
	}
	if h > MaxHealth {
		return MaxHealth
	}
	return h
}

// ActionDuration is how long an attack animation locks the fighter.
func ActionDuration(special bool) time.Duration {
	if special {
		return SpecialDuration
	}
	return AttackDuration
}

func ActionRange(special bool) float64 {
	if special {
		return SpecialRange
	}
	return AttackRange
}

func ActionDamage(special bool) int {
	if special {
		return SpecialDamage
	}
	return AttackDamage
}
