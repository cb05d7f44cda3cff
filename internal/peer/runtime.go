// Package peer runs one side of a match. A single goroutine owns every fighter
// record: it steps the local fighter on a ticker, applies inbound messages and
// runs timer callbacks, so nothing in the core needs a lock.
package peer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/client"
	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/match"
	"github.com/iamasit07/duelsync/internal/physics"
	"github.com/iamasit07/duelsync/internal/protocol"
	"github.com/iamasit07/duelsync/internal/rematch"
)

const (
	inboxSize = 64
	// longest step fed to local physics after a stall
	maxStep = 100 * time.Millisecond
)

// Transport is the joined session the runtime plays through.
type Transport interface {
	Send(msg protocol.Message) bool
	IsOpen() bool
	Inbound() <-chan protocol.Message
	Close() error
	Role() domain.Role
	RoomCode() string
}

// IntentSource delivers the local player's input once per tick.
type IntentSource interface {
	NextIntent(self, opponent *domain.Fighter, now time.Duration) match.Intent
}

// Callbacks are the hooks the rendering side consumes. They run on the runtime
// goroutine and must not call Runtime methods synchronously.
type Callbacks struct {
	OnRemoteMove            func(match.RemoteMove)
	OnRemoteAttackResolved  func(index int, special bool)
	OnHealthChanged         func(index, health int)
	OnMatchEnded            func(domain.Result)
	OnRematchDecisionNeeded func(protocol.ReplayRequest)
	OnRematchDeclined       func(protocol.ReplayAction)
	OnReturnToSelection     func()
	OnDisconnected          func(err error)
}

type Config struct {
	TickRate              int
	Match                 match.Config
	Arena                 physics.Config
	RematchRestartDelay   time.Duration
	DisconnectReturnDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		TickRate:              60,
		Match:                 match.DefaultConfig(),
		Arena:                 physics.DefaultConfig(),
		RematchRestartDelay:   rematch.DefaultRestartDelay,
		DisconnectReturnDelay: 3 * time.Second,
	}
}

type Runtime struct {
	cfg     Config
	sess    Transport
	intents IntentSource
	cb      Callbacks
	logger  *zap.Logger

	clock    *monoClock
	inbox    chan func()
	done     chan struct{}
	engine   *match.Engine
	rematch  *rematch.Machine
	dispatch *client.Dispatcher

	disconnected error
	exit         <-chan time.Time
}

func New(cfg Config, sess Transport, intents IntentSource, cb Callbacks, logger *zap.Logger) *Runtime {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runtime{
		cfg:     cfg,
		sess:    sess,
		intents: intents,
		cb:      cb,
		logger:  logger.Named("peer").With(zap.String("role", string(sess.Role())), zap.String("room", sess.RoomCode())),
		clock:   newMonoClock(),
		inbox:   make(chan func(), inboxSize),
		done:    make(chan struct{}),
	}

	r.engine = match.NewEngine(sess.Role(), cfg.Match, match.Deps{
		Session:   sess,
		Clock:     r.clock,
		Scheduler: r,
		Arena:     physics.NewArena(cfg.Arena),
		Logger:    logger,
	}, match.Callbacks{
		OnRemoteMove:           cb.OnRemoteMove,
		OnRemoteAttackResolved: cb.OnRemoteAttackResolved,
		OnHealthChanged:        cb.OnHealthChanged,
		OnMatchEnded:           cb.OnMatchEnded,
	})

	r.rematch = rematch.New(rematch.Deps{
		Role:         sess.Role(),
		Session:      sess,
		Match:        r.engine,
		Clock:        r.clock,
		Scheduler:    r,
		RoomCode:     sess.RoomCode(),
		RestartDelay: cfg.RematchRestartDelay,
		Logger:       logger,
	}, rematch.Callbacks{
		OnDecisionNeeded:  cb.OnRematchDecisionNeeded,
		OnRequestDeclined: cb.OnRematchDeclined,
		OnRestart:         r.restart,
	})

	r.dispatch = client.NewDispatcher(logger)
	r.subscribe()
	return r
}

// subscribe registers each concern with the dispatcher on its own.
func (r *Runtime) subscribe() {
	d := r.dispatch
	client.Handle(d, r.engine.ApplyRemoteAction)
	client.Handle(d, r.engine.ApplyPlayerUpdate)
	client.Handle(d, r.engine.ApplyHealthUpdate)
	client.Handle(d, r.engine.ApplyStartGame)
	client.Handle(d, r.rematch.HandleRequest)
	client.Handle(d, r.rematch.HandleResponse)
	client.Handle(d, func(protocol.PeerJoined) {
		if r.sess.Role() == domain.RoleHost && r.engine.Local() == nil {
			r.logger.Info("peer joined, starting match")
			r.engine.Begin()
		}
	})
	client.Handle(d, func(protocol.PlayerDisconnected) {
		r.disconnect(domain.ErrPeerDisconnected)
	})
	client.Handle(d, func(m protocol.ErrorMessage) {
		r.logger.Warn("relay error", zap.String("message", m.Message))
	})
}

// Run owns the match until ctx ends or the session is lost. After a
// disconnect it waits DisconnectReturnDelay and returns the cause.
func (r *Runtime) Run(ctx context.Context) error {
	defer close(r.done)

	period := time.Second / time.Duration(r.cfg.TickRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	inbound := r.sess.Inbound()
	last := time.Now()

	r.logger.Info("runtime started", zap.Duration("tick", period))

	for {
		select {
		case <-ctx.Done():
			r.sess.Close()
			return ctx.Err()

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			r.step(dt)

		case msg, ok := <-inbound:
			if !ok {
				inbound = nil
				r.disconnect(domain.ErrConnectionLost)
				continue
			}
			r.dispatch.Dispatch(msg)

		case fn := <-r.inbox:
			fn()

		case <-r.exit:
			r.logger.Info("returning to menu", zap.Error(r.disconnected))
			return r.disconnected
		}
	}
}

func (r *Runtime) step(dt time.Duration) {
	if r.disconnected != nil || !r.engine.Running() {
		return
	}
	if dt > maxStep {
		dt = maxStep
	}
	in := match.Intent{}
	if r.intents != nil {
		in = r.intents.NextIntent(r.engine.Local(), r.engine.Remote(), r.clock.Now())
	}
	r.engine.StepLocal(in, dt)
}

// After implements the scheduler used by the match and rematch machine: fn
// runs on the runtime goroutine once d has passed.
func (r *Runtime) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		select {
		case r.inbox <- fn:
		case <-r.done:
		}
	})
}

func (r *Runtime) restart(action protocol.ReplayAction) {
	switch action {
	case protocol.ReplaySamePlayers:
		if r.engine.Running() {
			r.logger.Debug("match already restarted")
			return
		}
		if r.sess.Role() == domain.RoleHost {
			r.engine.Begin()
			return
		}
		r.engine.Start([2]int{domain.MaxHealth, domain.MaxHealth})

	case protocol.SelectNewPlayers:
		r.engine.TearDown()
		if r.cb.OnReturnToSelection != nil {
			r.cb.OnReturnToSelection()
		}
	}
}

func (r *Runtime) disconnect(cause error) {
	if r.disconnected != nil {
		return
	}
	r.disconnected = cause
	r.logger.Warn("session lost", zap.Error(cause))
	r.sess.Close()
	if r.cb.OnDisconnected != nil {
		r.cb.OnDisconnected(cause)
	}
	r.exit = time.After(r.cfg.DisconnectReturnDelay)
}

var errStopped = errors.New("runtime stopped")

// call runs fn on the runtime goroutine and waits for its result.
func call[T any](ctx context.Context, r *Runtime, fn func() T) (T, error) {
	var zero T
	res := make(chan T, 1)
	job := func() { res <- fn() }

	select {
	case r.inbox <- job:
	case <-r.done:
		return zero, errStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case v := <-res:
		return v, nil
	case <-r.done:
		return zero, errStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

type monoClock struct{ start time.Time }

func newMonoClock() *monoClock { return &monoClock{start: time.Now()} }

// Now is the time since the session started.
func (c *monoClock) Now() time.Duration { return time.Since(c.start) }
