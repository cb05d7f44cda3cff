// Package physics holds the arena geometry and the simple body integration the
// local fighter uses. Remote fighters are never integrated; the arena is only
// asked whether their overwritten body rests on solid ground.
package physics

import (
	"math"
	"time"

	"github.com/solarlune/resolv"

	"github.com/iamasit07/duelsync/internal/domain"
)

const (
	tagSolid   = "solid"
	tagFighter = "fighter"

	cellSize = 4
)

type Config struct {
	Width   float64
	Height  float64
	GroundY float64
	BodyW   float64
	BodyH   float64
	Spawns  [2]domain.Vec2
}

func DefaultConfig() Config {
	return Config{
		Width:   800,
		Height:  480,
		GroundY: 400,
		BodyW:   48,
		BodyH:   96,
		Spawns: [2]domain.Vec2{
			{X: 200, Y: 400},
			{X: 600, Y: 400},
		},
	}
}

// Arena is the fighting stage. Fighter positions are the body's center x and
// feet y.
type Arena struct {
	cfg   Config
	space *resolv.Space
}

func NewArena(cfg Config) *Arena {
	w := int(math.Ceil(cfg.Width))
	h := int(math.Ceil(cfg.Height))
	space := resolv.NewSpace(w, h, cellSize, cellSize)

	floor := resolv.NewObject(0, cfg.GroundY, cfg.Width, cfg.Height-cfg.GroundY, tagSolid)
	space.Add(floor)

	return &Arena{cfg: cfg, space: space}
}

func (a *Arena) Config() Config {
	return a.cfg
}

func (a *Arena) Spawn(index int) domain.Vec2 {
	if index < 0 || index > 1 {
		return domain.Vec2{X: a.cfg.Width / 2, Y: a.cfg.GroundY}
	}
	return a.cfg.Spawns[index]
}

// Grounded reports whether a body standing at pos touches solid ground one
// pixel below its feet.
func (a *Arena) Grounded(pos domain.Vec2) bool {
	probe := resolv.NewObject(pos.X-a.cfg.BodyW/2, pos.Y-a.cfg.BodyH, a.cfg.BodyW, a.cfg.BodyH, tagFighter)
	a.space.Add(probe)
	defer a.space.Remove(probe)

	return probe.Check(0, 1, tagSolid) != nil
}

// Integrate advances a locally simulated fighter by dt: gravity, velocity, then
// landing on the floor and clamping to the stage walls.
func (a *Arena) Integrate(f *domain.Fighter, dt time.Duration) {
	secs := dt.Seconds()

	f.Velocity.Y += domain.Gravity * secs
	f.Position.X += f.Velocity.X * secs
	f.Position.Y += f.Velocity.Y * secs

	if f.Position.Y >= a.cfg.GroundY {
		f.Position.Y = a.cfg.GroundY
		if f.Velocity.Y > 0 {
			f.Velocity.Y = 0
		}
	}

	minX := a.cfg.BodyW / 2
	maxX := a.cfg.Width - a.cfg.BodyW/2
	if f.Position.X < minX {
		f.Position.X = minX
		f.Velocity.X = 0
	}
	if f.Position.X > maxX {
		f.Position.X = maxX
		f.Velocity.X = 0
	}
}
