package physics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iamasit07/duelsync/internal/domain"
)

func TestArena_Grounded(t *testing.T) {
	arena := NewArena(DefaultConfig())

	assert.True(t, arena.Grounded(domain.Vec2{X: 200, Y: 400}), "standing on the floor")
	assert.False(t, arena.Grounded(domain.Vec2{X: 200, Y: 300}), "100px in the air")
	assert.False(t, arena.Grounded(domain.Vec2{X: 600, Y: 200}))
}

func TestArena_IntegrateLandsOnFloor(t *testing.T) {
	arena := NewArena(DefaultConfig())
	f := domain.NewFighter(domain.RoleHost, 100, domain.Vec2{X: 200, Y: 400})
	f.Velocity.Y = domain.JumpVelocity

	step := 16 * time.Millisecond
	arena.Integrate(f, step)
	assert.Less(t, f.Position.Y, 400.0, "fighter should leave the ground")

	for i := 0; i < 200; i++ {
		arena.Integrate(f, step)
	}
	assert.Equal(t, 400.0, f.Position.Y)
	assert.Equal(t, 0.0, f.Velocity.Y)
	assert.True(t, arena.Grounded(f.Position))
}

func TestArena_IntegrateClampsWalls(t *testing.T) {
	arena := NewArena(DefaultConfig())
	f := domain.NewFighter(domain.RoleGuest, 100, domain.Vec2{X: 790, Y: 400})
	f.Velocity.X = domain.WalkSpeed

	arena.Integrate(f, 100*time.Millisecond)

	assert.Equal(t, 800-24.0, f.Position.X)
	assert.Equal(t, 0.0, f.Velocity.X)
}
