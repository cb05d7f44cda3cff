package domain

import "time"

// Fighter is one side of a match. Two instances exist per match, indexed by
// the owning role.
type Fighter struct {
	Owner             Role           `json:"owner"`
	Health            int            `json:"health"`
	Position          Vec2           `json:"position"`
	Velocity          Vec2           `json:"velocity"`
	Facing            Facing         `json:"facing"`
	Animation         AnimationState `json:"animation"`
	AttackLandedCount int            `json:"attackLandedCount"`
	LastAttackTime    time.Duration  `json:"lastAttackTime"`

	hasAttacked bool
	animGen     uint64
}

func NewFighter(owner Role, health int, spawn Vec2) *Fighter {
	facing := FacingRight
	if owner == RoleGuest {
		facing = FacingLeft
	}
	return &Fighter{
		Owner:     owner,
		Health:    ClampHealth(health),
		Position:  spawn,
		Facing:    facing,
		Animation: AnimIdle,
	}
}

// SetHealth overwrites health, clamped to [0, MaxHealth].
func (f *Fighter) SetHealth(h int) {
	f.Health = ClampHealth(h)
}

func (f *Fighter) IsDefeated() bool {
	return f.Health <= 0
}

// SetAnimation changes the animation state and returns the generation the new
// state was set under. Timers compare against it to know whether the state was
// replaced in the meantime.
func (f *Fighter) SetAnimation(a AnimationState) uint64 {
	f.animGen++
	f.Animation = a
	return f.animGen
}

func (f *Fighter) AnimationGeneration() uint64 {
	return f.animGen
}

// IsAttacking reports whether the fighter is locked in an attack animation.
// Movement input is not processed while it is.
func (f *Fighter) IsAttacking() bool {
	return f.Animation == AnimAttack || f.Animation == AnimSpecial
}

// CooldownElapsed reports whether enough time has passed since the last landed
// attack. A fighter that never landed one is always off cooldown.
func (f *Fighter) CooldownElapsed(now time.Duration) bool {
	if !f.hasAttacked {
		return true
	}
	return now-f.LastAttackTime >= AttackCooldown
}

func (f *Fighter) SpecialReady() bool {
	return f.AttackLandedCount >= SpecialThreshold
}

// RecordHit updates attack bookkeeping after one of this fighter's attacks lands.
func (f *Fighter) RecordHit(now time.Duration, special bool) {
	f.LastAttackTime = now
	f.hasAttacked = true
	if special {
		f.AttackLandedCount = 0
		return
	}
	if f.AttackLandedCount < SpecialThreshold {
		f.AttackLandedCount++
	}
}

func (f *Fighter) FaceTowards(x float64) {
	if x < f.Position.X {
		f.Facing = FacingLeft
	} else if x > f.Position.X {
		f.Facing = FacingRight
	}
}
