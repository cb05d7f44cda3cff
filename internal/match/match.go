package match

import (
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
	"github.com/iamasit07/duelsync/pkg/uid"
)

// Begin starts a fresh match at full health and, on the host, hands the
// starting health to the guest.
func (e *Engine) Begin() {
	health := [2]int{domain.MaxHealth, domain.MaxHealth}
	e.Start(health)
	if e.role == domain.RoleHost {
		e.send(protocol.StartGame{Health: health[:]})
	}
}

// Start builds both fighters at their spawn points with the given health.
// Any previous match is replaced.
func (e *Engine) Start(health [2]int) {
	for i := range e.fighters {
		owner, _ := domain.RoleForIndex(i)
		e.fighters[i] = domain.NewFighter(owner, health[i], e.arena.Spawn(i))
	}
	e.matchID = uid.NewMatchID()
	e.startedAt = e.now()
	e.remaining = e.cfg.MatchDuration
	e.result = domain.Result{}
	e.ticks = 0
	e.crouching = false

	e.logger.Info("match started",
		zap.String("match", e.matchID),
		zap.Ints("health", health[:]),
		zap.Duration("duration", e.cfg.MatchDuration))
}

// TearDown drops the fighters. Messages that need them are dropped until the
// next Start.
func (e *Engine) TearDown() {
	e.fighters = [2]*domain.Fighter{}
	e.result = domain.Result{}
	e.remaining = 0
	e.logger.Info("match torn down")
}

// Running reports whether fighters exist and the match has not ended.
func (e *Engine) Running() bool {
	return e.fighters[0] != nil && !e.result.Over
}

func (e *Engine) Over() bool {
	return e.result.Over
}

func (e *Engine) Result() domain.Result {
	return e.result
}

func (e *Engine) Remaining() time.Duration {
	return e.remaining
}

// Advance runs the countdown. When it reaches zero the fighter with strictly
// more health wins; equal health is a draw.
func (e *Engine) Advance(dt time.Duration) {
	if !e.Running() {
		return
	}
	e.remaining -= dt
	if e.remaining > 0 {
		return
	}
	e.remaining = 0
	e.finish(domain.TimeUpWinner(e.fighters), domain.ReasonTimeUp)
}

// checkResult runs after every health mutation, local or received.
func (e *Engine) checkResult() {
	if e.fighters[0] == nil || e.result.Over {
		return
	}
	if winner, ok := domain.CheckKnockout(e.fighters); ok {
		e.finish(winner, domain.ReasonKnockout)
	}
}

// finish records the result once.
func (e *Engine) finish(winner int, reason domain.EndReason) {
	if e.result.Over {
		return
	}
	e.result = domain.Result{
		Over:     true,
		Winner:   winner,
		Reason:   reason,
		Health:   [2]int{e.fighters[0].Health, e.fighters[1].Health},
		Duration: e.now() - e.startedAt,
	}

	e.logger.Info("match ended",
		zap.String("match", e.matchID),
		zap.Int("winner", winner),
		zap.String("reason", string(reason)),
		zap.Ints("health", e.result.Health[:]))

	if e.role == domain.RoleHost {
		e.send(protocol.MatchResult{
			MatchID:    e.matchID,
			Winner:     winner,
			Reason:     string(reason),
			Health:     e.result.Health[:],
			DurationMs: e.result.Duration.Milliseconds(),
		})
	}

	if e.cb.OnMatchEnded != nil {
		e.cb.OnMatchEnded(e.result)
	}
}
