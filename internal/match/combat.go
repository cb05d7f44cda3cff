package match

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
)

// Outcome is what an attack attempt resolved to. Failed preconditions are
// outcomes, not errors.
type Outcome int

const (
	OutcomeHit Outcome = iota
	OutcomeMiss
	OutcomeOnCooldown
	OutcomeNotCharged
	OutcomeMatchOver
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeOnCooldown:
		return "on_cooldown"
	case OutcomeNotCharged:
		return "not_charged"
	case OutcomeMatchOver:
		return "match_over"
	default:
		return "invalid"
	}
}

// TryAttack resolves an attack by the fighter at attackerIndex. It runs only on
// the peer that performed the attack; the defender never cross-checks. On a
// hit the defender's new health is pushed to the peer as a value.
func (e *Engine) TryAttack(attackerIndex int, now time.Duration, special bool) Outcome {
	if e.fighters[0] == nil || attackerIndex < 0 || attackerIndex > 1 {
		return OutcomeInvalid
	}
	if e.result.Over {
		return OutcomeMatchOver
	}

	attacker := e.fighters[attackerIndex]
	defenderIndex := 1 - attackerIndex
	defender := e.fighters[defenderIndex]

	if !attacker.CooldownElapsed(now) {
		return OutcomeOnCooldown
	}
	if special && !attacker.SpecialReady() {
		return OutcomeNotCharged
	}

	dist := math.Abs(attacker.Position.X - defender.Position.X)
	if dist > domain.ActionRange(special) {
		e.logger.Debug("attack missed", zap.Float64("distance", dist), zap.Bool("special", special))
		return OutcomeMiss
	}

	defender.SetHealth(defender.Health - domain.ActionDamage(special))
	attacker.RecordHit(now, special)

	e.logger.Debug("attack landed",
		zap.Int("defender", defenderIndex),
		zap.Int("health", defender.Health),
		zap.Bool("special", special))

	e.send(protocol.HealthUpdate{PlayerIndex: defenderIndex, Health: defender.Health})
	e.healthChanged(defenderIndex)
	e.checkResult()
	return OutcomeHit
}

// ApplyHealthUpdate overwrites a fighter's health with the peer's value. The
// last value received wins; there is no sequencing.
func (e *Engine) ApplyHealthUpdate(m protocol.HealthUpdate) {
	f := e.Fighter(m.PlayerIndex)
	if f == nil {
		e.logger.Debug("dropping health update", zap.Int("index", m.PlayerIndex))
		return
	}
	before := f.Health
	f.SetHealth(m.Health)
	if f.Health != before {
		e.healthChanged(m.PlayerIndex)
	}
	e.checkResult()
}
