package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
)

func TestApplyRemoteAction_EchoGuard(t *testing.T) {
	h := newHarness(domain.RoleHost).started()
	host := *h.engine.Fighter(domain.HostIndex)

	h.engine.ApplyRemoteAction(protocol.Action{
		Type:      protocol.KindMove,
		Direction: protocol.DirectionLeft,
		Position:  protocol.Snapshot{X: 10, Y: 400},
		Player:    domain.RoleHost,
	})

	assert.Equal(t, host, *h.engine.Fighter(domain.HostIndex))
	assert.Equal(t, 600.0, h.engine.Fighter(domain.GuestIndex).Position.X)
	assert.Empty(t, h.remoteMoves)
}

func TestApplyRemoteAction_BeforeStartIsDropped(t *testing.T) {
	h := newHarness(domain.RoleGuest)
	assert.NotPanics(t, func() {
		h.engine.ApplyRemoteAction(protocol.Action{Type: protocol.KindAttack, Player: domain.RoleHost})
		h.engine.ApplyPlayerUpdate(protocol.PlayerUpdate{X: 1, Player: domain.RoleHost})
	})
	assert.Nil(t, h.engine.Remote())
}

func TestApplyRemoteAction_Move(t *testing.T) {
	h := newHarness(domain.RoleGuest).started()

	h.engine.ApplyRemoteAction(protocol.Action{
		Type:      protocol.KindMove,
		Direction: protocol.DirectionLeft,
		Position:  protocol.Snapshot{X: 180, Y: 400, VelocityX: -200},
		Player:    domain.RoleHost,
	})

	host := h.engine.Fighter(domain.HostIndex)
	assert.Equal(t, domain.Vec2{X: 180, Y: 400}, host.Position)
	assert.Equal(t, domain.Vec2{X: -200}, host.Velocity)
	assert.Equal(t, domain.FacingLeft, host.Facing)
	assert.Equal(t, domain.AnimWalk, host.Animation)
	require.Len(t, h.remoteMoves, 1)
	assert.Equal(t, protocol.KindMove, h.remoteMoves[0].Kind)

	h.engine.ApplyRemoteAction(protocol.Action{
		Type:      protocol.KindMove,
		Direction: protocol.DirectionStop,
		Position:  protocol.Snapshot{X: 170, Y: 400},
		Player:    domain.RoleHost,
	})
	assert.Equal(t, domain.FacingLeft, host.Facing)
	assert.Equal(t, domain.AnimIdle, host.Animation)
	assert.Equal(t, 170.0, host.Position.X)
}

func TestApplyRemoteAction_JumpChecksGroundLocally(t *testing.T) {
	h := newHarness(domain.RoleHost).started()
	guest := h.engine.Fighter(domain.GuestIndex)

	h.engine.ApplyRemoteAction(protocol.Action{
		Type:     protocol.KindJump,
		Position: protocol.Snapshot{X: 500, Y: 400},
		Player:   domain.RoleGuest,
	})
	assert.Equal(t, domain.JumpVelocity, guest.Velocity.Y)

	// sender claims a jump while already in the air
	h.engine.ApplyRemoteAction(protocol.Action{
		Type:     protocol.KindJump,
		Position: protocol.Snapshot{X: 500, Y: 250, VelocityY: 35},
		Player:   domain.RoleGuest,
	})
	assert.Equal(t, 35.0, guest.Velocity.Y)
	assert.Equal(t, 250.0, guest.Position.Y)
}

func TestApplyRemoteAction_AttackRevertsToIdle(t *testing.T) {
	h := newHarness(domain.RoleHost).started()
	guest := h.engine.Fighter(domain.GuestIndex)

	h.engine.ApplyRemoteAction(protocol.Action{
		Type:     protocol.KindAttack,
		Position: protocol.Snapshot{X: 260, Y: 400},
		Player:   domain.RoleGuest,
	})

	assert.Equal(t, domain.AnimAttack, guest.Animation)
	assert.Equal(t, 260.0, guest.Position.X)
	assert.Equal(t, domain.MaxHealth, h.engine.Fighter(domain.HostIndex).Health, "attack alone never changes health")
	assert.Equal(t, []bool{false}, h.remoteHits)

	h.sched.advance(199 * time.Millisecond)
	assert.Equal(t, domain.AnimAttack, guest.Animation)
	h.sched.advance(time.Millisecond)
	assert.Equal(t, domain.AnimIdle, guest.Animation)
}

func TestApplyRemoteAction_SpecialRevertSkippedWhenStateChanged(t *testing.T) {
	h := newHarness(domain.RoleHost).started()
	guest := h.engine.Fighter(domain.GuestIndex)

	h.engine.ApplyRemoteAction(protocol.Action{Type: protocol.KindSpecial, Player: domain.RoleGuest, Position: protocol.Snapshot{X: 600, Y: 400}})
	assert.Equal(t, domain.AnimSpecial, guest.Animation)

	h.sched.advance(500 * time.Millisecond)
	h.engine.ApplyRemoteAction(protocol.Action{Type: protocol.KindCrouch, Player: domain.RoleGuest, Position: protocol.Snapshot{X: 600, Y: 400}})

	h.sched.advance(400 * time.Millisecond)
	assert.Equal(t, domain.AnimCrouch, guest.Animation)

	h.engine.ApplyRemoteAction(protocol.Action{Type: protocol.KindStand, Player: domain.RoleGuest, Position: protocol.Snapshot{X: 600, Y: 400}})
	assert.Equal(t, domain.AnimIdle, guest.Animation)
}

func TestApplyRemoteAction_StaleRevertAfterRestart(t *testing.T) {
	h := newHarness(domain.RoleHost).started()
	h.engine.ApplyRemoteAction(protocol.Action{Type: protocol.KindAttack, Player: domain.RoleGuest, Position: protocol.Snapshot{X: 600, Y: 400}})

	h.engine.Begin()
	fresh := h.engine.Fighter(domain.GuestIndex)
	fresh.SetAnimation(domain.AnimCrouch)

	h.sched.advance(time.Second)
	assert.Equal(t, domain.AnimCrouch, fresh.Animation)
}

func TestApplyPlayerUpdate(t *testing.T) {
	h := newHarness(domain.RoleGuest).started()

	h.engine.ApplyPlayerUpdate(protocol.PlayerUpdate{X: 321, Y: 390, VelocityX: 200, VelocityY: -12, Frame: 1, FlipX: true, Player: domain.RoleHost})

	host := h.engine.Fighter(domain.HostIndex)
	assert.Equal(t, domain.Vec2{X: 321, Y: 390}, host.Position)
	assert.Equal(t, domain.Vec2{X: 200, Y: -12}, host.Velocity)
	assert.Equal(t, domain.FacingLeft, host.Facing)
	require.Len(t, h.remoteMoves, 1)
	assert.Equal(t, 1, h.remoteMoves[0].Frame)

	h.engine.ApplyPlayerUpdate(protocol.PlayerUpdate{X: 1, Player: domain.RoleGuest})
	assert.Equal(t, 321.0, host.Position.X)
}

func TestApplyStartGame(t *testing.T) {
	t.Run("guest starts a match", func(t *testing.T) {
		h := newHarness(domain.RoleGuest)
		h.engine.ApplyStartGame(protocol.StartGame{Health: []int{100, 100}})
		assert.True(t, h.engine.Running())
		assert.Equal(t, domain.MaxHealth, h.engine.Fighter(1).Health)
	})

	t.Run("guest restarts after match over", func(t *testing.T) {
		h := newHarness(domain.RoleGuest).started()
		h.engine.ApplyHealthUpdate(protocol.HealthUpdate{PlayerIndex: 0, Health: 0})
		require.True(t, h.engine.Over())

		h.engine.ApplyStartGame(protocol.StartGame{Health: []int{100, 100}})
		assert.True(t, h.engine.Running())
		assert.Equal(t, domain.MaxHealth, h.engine.Fighter(0).Health)
	})

	t.Run("running match only takes health", func(t *testing.T) {
		h := newHarness(domain.RoleGuest).started()
		h.engine.Fighter(0).Position.X = 333
		h.engine.ApplyStartGame(protocol.StartGame{Health: []int{80, 100}})
		assert.Equal(t, 80, h.engine.Fighter(0).Health)
		assert.Equal(t, 333.0, h.engine.Fighter(0).Position.X)
	})

	t.Run("host ignores", func(t *testing.T) {
		h := newHarness(domain.RoleHost)
		h.engine.ApplyStartGame(protocol.StartGame{Health: []int{100, 100}})
		assert.False(t, h.engine.Running())
	})
}
