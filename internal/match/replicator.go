package match

import (
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
)

// Intent is the abstract input of the local player for one step.
type Intent struct {
	Left           bool `json:"left"`
	Right          bool `json:"right"`
	Up             bool `json:"up"`
	Down           bool `json:"down"`
	AttackPressed  bool `json:"attackPressed"`
	SpecialPressed bool `json:"specialPressed"`
	BlockActive    bool `json:"blockActive"`
}

// Resolved is the single action an intent turned into this step.
type Resolved struct {
	Kind      protocol.Kind
	Direction protocol.Direction
}

// StepLocal advances the locally controlled fighter by one simulation step:
// the attack path or movement, local physics, replication and the countdown.
func (e *Engine) StepLocal(in Intent, dt time.Duration) {
	if !e.Running() {
		return
	}
	f := e.Local()
	e.ticks++

	var moved *Resolved
	pressed := in.SpecialPressed || in.AttackPressed
	switch {
	case f.IsAttacking():
		// locked until the attack animation ends
		f.Velocity.X = 0
	case pressed && e.localAttack(in.SpecialPressed):
	default:
		// includes presses refused for cooldown or charge
		r := e.resolveMovement(f, in)
		moved = &r
	}

	e.arena.Integrate(f, dt)
	if moved != nil {
		e.Replicate(*moved, f)
	}
	e.snapshot(f)
	e.Advance(dt)
}

// resolveMovement applies movement input to f and picks the action to send.
// Crouch and stand transitions and jumps win over plain moves.
func (e *Engine) resolveMovement(f *domain.Fighter, in Intent) Resolved {
	crouch := in.Down || in.BlockActive
	if crouch != e.crouching {
		e.crouching = crouch
		f.Velocity.X = 0
		if crouch {
			f.SetAnimation(domain.AnimCrouch)
			return Resolved{Kind: protocol.KindCrouch}
		}
		f.SetAnimation(domain.AnimIdle)
		return Resolved{Kind: protocol.KindStand}
	}
	if crouch {
		f.Velocity.X = 0
		if f.Animation != domain.AnimCrouch {
			f.SetAnimation(domain.AnimCrouch)
		}
		return Resolved{Kind: protocol.KindCrouch}
	}

	dir := protocol.DirectionStop
	switch {
	case in.Left && !in.Right:
		dir = protocol.DirectionLeft
		f.Velocity.X = -domain.WalkSpeed
		f.Facing = domain.FacingLeft
	case in.Right && !in.Left:
		dir = protocol.DirectionRight
		f.Velocity.X = domain.WalkSpeed
		f.Facing = domain.FacingRight
	default:
		f.Velocity.X = 0
	}

	anim := domain.AnimWalk
	if dir == protocol.DirectionStop {
		anim = domain.AnimIdle
	}
	if f.Animation != anim {
		f.SetAnimation(anim)
	}

	if in.Up && e.arena.Grounded(f.Position) {
		f.Velocity.Y = domain.JumpVelocity
		return Resolved{Kind: protocol.KindJump, Direction: dir}
	}
	return Resolved{Kind: protocol.KindMove, Direction: dir}
}

// Replicate sends exactly one action message for the locally controlled
// fighter. Nothing is sent unless the session is open.
func (e *Engine) Replicate(r Resolved, f *domain.Fighter) bool {
	if e.sess == nil || !e.sess.IsOpen() {
		return false
	}
	a := protocol.Action{
		Type:      r.Kind,
		Position:  snapshotOf(f),
		Player:    e.role,
		Timestamp: e.now().Milliseconds(),
	}
	if r.Kind == protocol.KindMove {
		a.Direction = r.Direction
	}
	return e.sess.Send(a)
}

// SendTestSync stamps the current clock so the peer can log the skew.
func (e *Engine) SendTestSync() bool {
	f := e.Local()
	if f == nil {
		return false
	}
	return e.Replicate(Resolved{Kind: protocol.KindTestSync}, f)
}

// snapshot sends the continuous position update every few ticks.
func (e *Engine) snapshot(f *domain.Fighter) {
	if e.ticks%e.cfg.SnapshotEveryTicks != 0 {
		return
	}
	e.send(protocol.PlayerUpdate{
		X:         f.Position.X,
		Y:         f.Position.Y,
		VelocityX: f.Velocity.X,
		VelocityY: f.Velocity.Y,
		Frame:     frameOf(f.Animation),
		FlipX:     f.Facing == domain.FacingLeft,
		Player:    e.role,
	})
}

// localAttack is the only path that replicates attack and special actions.
// It reports whether the attack was performed.
func (e *Engine) localAttack(special bool) bool {
	f := e.Local()
	now := e.now()

	if !f.CooldownElapsed(now) {
		e.logger.Debug("attack ignored, on cooldown")
		return false
	}
	if special && !f.SpecialReady() {
		e.logger.Debug("special ignored, not charged", zap.Int("landed", f.AttackLandedCount))
		return false
	}

	kind := protocol.KindAttack
	anim := domain.AnimAttack
	if special {
		kind = protocol.KindSpecial
		anim = domain.AnimSpecial
	}

	f.Velocity.X = 0
	// the attack replaces any crouch; holding down afterwards crouches anew
	e.crouching = false
	gen := f.SetAnimation(anim)
	e.revertAfter(e.LocalIndex(), f, gen, domain.ActionDuration(special))

	e.Replicate(Resolved{Kind: kind}, f)
	e.TryAttack(e.LocalIndex(), now, special)
	return true
}

// revertAfter returns f to idle after d unless its animation changed or the
// match was replaced in the meantime.
func (e *Engine) revertAfter(index int, f *domain.Fighter, gen uint64, d time.Duration) {
	e.sched.After(d, func() {
		if e.fighters[index] != f || f.AnimationGeneration() != gen {
			return
		}
		f.SetAnimation(domain.AnimIdle)
	})
}

func snapshotOf(f *domain.Fighter) protocol.Snapshot {
	return protocol.Snapshot{
		X:         f.Position.X,
		Y:         f.Position.Y,
		VelocityX: f.Velocity.X,
		VelocityY: f.Velocity.Y,
	}
}

var animFrames = map[domain.AnimationState]int{
	domain.AnimIdle:    0,
	domain.AnimWalk:    1,
	domain.AnimAttack:  2,
	domain.AnimSpecial: 3,
	domain.AnimCrouch:  4,
}

func frameOf(a domain.AnimationState) int {
	return animFrames[a]
}
