package match

import (
	"sort"
	"time"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/physics"
	"github.com/iamasit07/duelsync/internal/protocol"
)

type recordingSender struct {
	open bool
	sent []protocol.Message
}

func (s *recordingSender) Send(msg protocol.Message) bool {
	if !s.open {
		return false
	}
	s.sent = append(s.sent, msg)
	return true
}

func (s *recordingSender) IsOpen() bool { return s.open }

func (s *recordingSender) ofKind(k protocol.Kind) []protocol.Message {
	var out []protocol.Message
	for _, m := range s.sent {
		if m.Kind() == k {
			out = append(out, m)
		}
	}
	return out
}

func (s *recordingSender) reset() { s.sent = nil }

type fakeClock struct{ t time.Duration }

func (c *fakeClock) Now() time.Duration { return c.t }

type timer struct {
	at time.Duration
	fn func()
}

// manualScheduler fires callbacks only when the test advances it.
type manualScheduler struct {
	clock  *fakeClock
	timers []timer
}

func (s *manualScheduler) After(d time.Duration, fn func()) {
	s.timers = append(s.timers, timer{at: s.clock.t + d, fn: fn})
}

func (s *manualScheduler) advance(d time.Duration) {
	s.clock.t += d
	sort.SliceStable(s.timers, func(i, j int) bool { return s.timers[i].at < s.timers[j].at })
	var pending []timer
	var due []timer
	for _, t := range s.timers {
		if t.at <= s.clock.t {
			due = append(due, t)
		} else {
			pending = append(pending, t)
		}
	}
	s.timers = pending
	for _, t := range due {
		t.fn()
	}
}

type harness struct {
	engine *Engine
	sender *recordingSender
	clock  *fakeClock
	sched  *manualScheduler

	healthEvents []int
	results      []domain.Result
	remoteMoves  []RemoteMove
	remoteHits   []bool
}

func newHarness(role domain.Role) *harness {
	h := &harness{
		sender: &recordingSender{open: true},
		clock:  &fakeClock{},
	}
	h.sched = &manualScheduler{clock: h.clock}
	h.engine = NewEngine(role, Config{MatchDuration: 60 * time.Second, SnapshotEveryTicks: 2}, Deps{
		Session:   h.sender,
		Clock:     h.clock,
		Scheduler: h.sched,
		Arena:     physics.NewArena(physics.DefaultConfig()),
	}, Callbacks{
		OnHealthChanged: func(index, health int) { h.healthEvents = append(h.healthEvents, health) },
		OnMatchEnded:    func(r domain.Result) { h.results = append(h.results, r) },
		OnRemoteMove:    func(m RemoteMove) { h.remoteMoves = append(h.remoteMoves, m) },
		OnRemoteAttackResolved: func(index int, special bool) {
			h.remoteHits = append(h.remoteHits, special)
		},
	})
	return h
}

// started begins a match and clears the start_game message from the record.
func (h *harness) started() *harness {
	h.engine.Begin()
	h.sender.reset()
	return h
}

func (h *harness) place(hostX, guestX float64) {
	h.engine.Fighter(domain.HostIndex).Position.X = hostX
	h.engine.Fighter(domain.GuestIndex).Position.X = guestX
}
