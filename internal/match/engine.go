// Package match holds the state of one running match and the three concerns
// that mutate it: replicating the local fighter, applying the remote peer's
// actions and resolving attacks. Every method must be called from the single
// goroutine that owns the match.
package match

import (
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/physics"
	"github.com/iamasit07/duelsync/internal/protocol"
)

// Sender is the part of the session the match writes through.
type Sender interface {
	Send(msg protocol.Message) bool
	IsOpen() bool
}

// Clock returns monotonic time since the session started.
type Clock interface {
	Now() time.Duration
}

// Scheduler runs fn on the owning goroutine after d. Scheduled callbacks are
// never cancelled; they check state when they fire.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// RemoteMove is reported every time the remote fighter's body is overwritten.
type RemoteMove struct {
	Index   int
	Kind    protocol.Kind
	Fighter domain.Fighter
	Frame   int
}

// Callbacks are the hooks the rendering side consumes. Nil hooks are skipped.
type Callbacks struct {
	OnRemoteMove           func(RemoteMove)
	OnRemoteAttackResolved func(index int, special bool)
	OnHealthChanged        func(index, health int)
	OnMatchEnded           func(domain.Result)
}

type Config struct {
	MatchDuration      time.Duration
	SnapshotEveryTicks int
}

func DefaultConfig() Config {
	return Config{
		MatchDuration:      domain.DefaultMatchDuration,
		SnapshotEveryTicks: 3,
	}
}

type Deps struct {
	Session   Sender
	Clock     Clock
	Scheduler Scheduler
	Arena     *physics.Arena
	Logger    *zap.Logger
}

// Engine is one peer's view of a match between the two fighters.
type Engine struct {
	role   domain.Role
	cfg    Config
	sess   Sender
	clock  Clock
	sched  Scheduler
	arena  *physics.Arena
	cb     Callbacks
	logger *zap.Logger

	fighters  [2]*domain.Fighter
	matchID   string
	startedAt time.Duration
	remaining time.Duration
	result    domain.Result

	ticks     int
	crouching bool
}

func NewEngine(role domain.Role, cfg Config, deps Deps, cb Callbacks) *Engine {
	if cfg.MatchDuration <= 0 {
		cfg.MatchDuration = domain.DefaultMatchDuration
	}
	if cfg.SnapshotEveryTicks <= 0 {
		cfg.SnapshotEveryTicks = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		role:   role,
		cfg:    cfg,
		sess:   deps.Session,
		clock:  deps.Clock,
		sched:  deps.Scheduler,
		arena:  deps.Arena,
		cb:     cb,
		logger: logger.Named("match").With(zap.String("role", string(role))),
	}
}

func (e *Engine) Role() domain.Role { return e.role }

func (e *Engine) LocalIndex() int { return e.role.Index() }

func (e *Engine) RemoteIndex() int { return e.role.Opponent().Index() }

// Fighter returns the fighter at index, or nil before a match exists.
func (e *Engine) Fighter(index int) *domain.Fighter {
	if index < 0 || index > 1 {
		return nil
	}
	return e.fighters[index]
}

func (e *Engine) Local() *domain.Fighter { return e.Fighter(e.LocalIndex()) }

func (e *Engine) Remote() *domain.Fighter { return e.Fighter(e.RemoteIndex()) }

// View is a copy of the match state for debugging and display.
type View struct {
	Role      domain.Role      `json:"role"`
	MatchID   string           `json:"matchId,omitempty"`
	Running   bool             `json:"running"`
	Fighters  []domain.Fighter `json:"fighters,omitempty"`
	Remaining time.Duration    `json:"remaining"`
	Result    domain.Result    `json:"result"`
}

func (e *Engine) View() View {
	v := View{
		Role:      e.role,
		MatchID:   e.matchID,
		Running:   e.Running(),
		Remaining: e.remaining,
		Result:    e.result,
	}
	if e.fighters[0] != nil {
		v.Fighters = []domain.Fighter{*e.fighters[0], *e.fighters[1]}
	}
	return v
}

func (e *Engine) now() time.Duration {
	return e.clock.Now()
}

func (e *Engine) send(msg protocol.Message) bool {
	if e.sess == nil || !e.sess.IsOpen() {
		e.logger.Debug("session not open, message not sent", zap.String("kind", string(msg.Kind())))
		return false
	}
	return e.sess.Send(msg)
}

func (e *Engine) healthChanged(index int) {
	if e.cb.OnHealthChanged != nil {
		e.cb.OnHealthChanged(index, e.fighters[index].Health)
	}
}

func (e *Engine) remoteMoved(index int, kind protocol.Kind, frame int) {
	if e.cb.OnRemoteMove != nil {
		e.cb.OnRemoteMove(RemoteMove{Index: index, Kind: kind, Fighter: *e.fighters[index], Frame: frame})
	}
}
