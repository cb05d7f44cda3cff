package match

import (
	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
)

// ApplyRemoteAction applies one action from the peer to the fighter the local
// role does not own. The remote body is never simulated here; its state is
// overwritten from the message.
func (e *Engine) ApplyRemoteAction(a protocol.Action) {
	if a.Player == e.role {
		e.logger.Debug("dropping echoed action", zap.String("kind", string(a.Type)))
		return
	}
	if e.fighters[0] == nil {
		e.logger.Debug("dropping action before match start", zap.String("kind", string(a.Type)))
		return
	}
	idx := a.Player.Index()
	if idx < 0 || idx != e.RemoteIndex() {
		e.logger.Warn("dropping action for unknown fighter", zap.String("player", string(a.Player)))
		return
	}
	f := e.fighters[idx]

	switch a.Type {
	case protocol.KindMove:
		switch a.Direction {
		case protocol.DirectionLeft:
			f.Facing = domain.FacingLeft
		case protocol.DirectionRight:
			f.Facing = domain.FacingRight
		}
		if a.Direction == protocol.DirectionStop {
			f.SetAnimation(domain.AnimIdle)
		} else {
			f.SetAnimation(domain.AnimWalk)
		}
		overwrite(f, a.Position)
		e.remoteMoved(idx, a.Type, frameOf(f.Animation))

	case protocol.KindJump:
		overwrite(f, a.Position)
		if e.arena.Grounded(f.Position) {
			f.Velocity.Y = domain.JumpVelocity
		}
		e.remoteMoved(idx, a.Type, frameOf(f.Animation))

	case protocol.KindAttack, protocol.KindSpecial:
		special := a.Type == protocol.KindSpecial
		anim := domain.AnimAttack
		if special {
			anim = domain.AnimSpecial
		}
		overwrite(f, a.Position)
		gen := f.SetAnimation(anim)
		e.revertAfter(idx, f, gen, domain.ActionDuration(special))
		if e.cb.OnRemoteAttackResolved != nil {
			e.cb.OnRemoteAttackResolved(idx, special)
		}

	case protocol.KindCrouch:
		overwrite(f, a.Position)
		f.SetAnimation(domain.AnimCrouch)
		e.remoteMoved(idx, a.Type, frameOf(f.Animation))

	case protocol.KindStand:
		overwrite(f, a.Position)
		f.SetAnimation(domain.AnimIdle)
		e.remoteMoved(idx, a.Type, frameOf(f.Animation))

	case protocol.KindTestSync:
		skew := e.now().Milliseconds() - a.Timestamp
		e.logger.Info("test sync", zap.Int64("skewMs", skew))

	default:
		e.logger.Warn("unsupported action", zap.String("kind", string(a.Type)))
	}
}

// ApplyPlayerUpdate overwrites the remote body from the continuous snapshot.
func (e *Engine) ApplyPlayerUpdate(u protocol.PlayerUpdate) {
	if u.Player == e.role {
		e.logger.Debug("dropping echoed player update")
		return
	}
	f := e.Remote()
	if f == nil {
		return
	}
	f.Position = domain.Vec2{X: u.X, Y: u.Y}
	f.Velocity = domain.Vec2{X: u.VelocityX, Y: u.VelocityY}
	if u.FlipX {
		f.Facing = domain.FacingLeft
	} else {
		f.Facing = domain.FacingRight
	}
	e.remoteMoved(e.RemoteIndex(), protocol.KindPlayerUpdate, u.Frame)
}

// ApplyStartGame takes the host's starting health. The guest starts a match
// when none is running; otherwise only health is overwritten.
func (e *Engine) ApplyStartGame(m protocol.StartGame) {
	if e.role == domain.RoleHost {
		e.logger.Debug("host ignores start_game")
		return
	}
	if len(m.Health) != 2 {
		e.logger.Warn("dropping start_game", zap.Ints("health", m.Health))
		return
	}
	if !e.Running() {
		e.Start([2]int{m.Health[0], m.Health[1]})
		return
	}
	for i, h := range m.Health {
		e.fighters[i].SetHealth(h)
		e.healthChanged(i)
	}
	e.checkResult()
}

func overwrite(f *domain.Fighter, s protocol.Snapshot) {
	f.Position = domain.Vec2{X: s.X, Y: s.Y}
	f.Velocity = domain.Vec2{X: s.VelocityX, Y: s.VelocityY}
}
