package rematch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
)

type outbox struct {
	open bool
	sent []protocol.Message
}

func (o *outbox) Send(msg protocol.Message) bool {
	if !o.open {
		return false
	}
	o.sent = append(o.sent, msg)
	return true
}

func (o *outbox) IsOpen() bool { return o.open }

// drain returns and clears everything sent so far.
func (o *outbox) drain() []protocol.Message {
	out := o.sent
	o.sent = nil
	return out
}

type fakeMatch struct{ over bool }

func (f *fakeMatch) Over() bool { return f.over }

type fakeClock struct{ t time.Duration }

func (c *fakeClock) Now() time.Duration { return c.t }

type delayed struct {
	at time.Duration
	fn func()
}

type manualScheduler struct {
	clock *fakeClock
	queue []delayed
}

func (s *manualScheduler) After(d time.Duration, fn func()) {
	s.queue = append(s.queue, delayed{at: s.clock.t + d, fn: fn})
}

func (s *manualScheduler) advance(d time.Duration) {
	s.clock.t += d
	var keep []delayed
	for _, q := range s.queue {
		if q.at <= s.clock.t {
			q.fn()
		} else {
			keep = append(keep, q)
		}
	}
	s.queue = keep
}

type peer struct {
	m        *Machine
	out      *outbox
	match    *fakeMatch
	sched    *manualScheduler
	prompts  []protocol.ReplayRequest
	restarts []protocol.ReplayAction
	declined int
}

func newPeer(role domain.Role) *peer {
	clock := &fakeClock{t: 10 * time.Second}
	p := &peer{
		out:   &outbox{open: true},
		match: &fakeMatch{over: true},
		sched: &manualScheduler{clock: clock},
	}
	p.m = New(Deps{
		Role:      role,
		Session:   p.out,
		Match:     p.match,
		Clock:     clock,
		Scheduler: p.sched,
		RoomCode:  "K7Q2ZX",
		Logger:    zap.NewNop(),
	}, Callbacks{
		OnDecisionNeeded: func(req protocol.ReplayRequest) { p.prompts = append(p.prompts, req) },
		OnRestart: func(a protocol.ReplayAction) {
			p.restarts = append(p.restarts, a)
			p.match.over = false
		},
		OnRequestDeclined: func(protocol.ReplayAction) { p.declined++ },
	})
	return p
}

// deliver hands every message p sent to the other peer's machine.
func deliver(from, to *peer) []protocol.Message {
	msgs := from.out.drain()
	for _, msg := range msgs {
		switch m := msg.(type) {
		case protocol.ReplayRequest:
			to.m.HandleRequest(m)
		case protocol.ReplayResponse:
			to.m.HandleResponse(m)
		}
	}
	return msgs
}

func responses(msgs []protocol.Message) []protocol.ReplayResponse {
	var out []protocol.ReplayResponse
	for _, msg := range msgs {
		if r, ok := msg.(protocol.ReplayResponse); ok {
			out = append(out, r)
		}
	}
	return out
}

func TestSimultaneousSameRequest_BothAcceptWithoutDeadlock(t *testing.T) {
	host, guest := newPeer(domain.RoleHost), newPeer(domain.RoleGuest)

	require.True(t, host.m.Request(protocol.ReplaySamePlayers))
	require.True(t, guest.m.Request(protocol.ReplaySamePlayers))

	// both requests cross on the wire; each side's auto-accept follows its
	// own request
	deliver(host, guest)
	fromGuest := deliver(guest, host)
	fromHost := deliver(host, guest)

	assert.Equal(t, Accepted, host.m.Resolution())
	assert.Equal(t, Accepted, guest.m.Resolution())
	assert.Empty(t, host.prompts)
	assert.Empty(t, guest.prompts)

	for _, r := range append(responses(fromHost), responses(fromGuest)...) {
		assert.True(t, r.Accepted, "no declined response may be sent")
	}
	assert.Len(t, responses(fromHost), 1)
	assert.Len(t, responses(fromGuest), 1)

	host.sched.advance(time.Minute)
	guest.sched.advance(time.Minute)

	assert.Equal(t, []protocol.ReplayAction{protocol.ReplaySamePlayers}, host.restarts)
	assert.Equal(t, []protocol.ReplayAction{protocol.ReplaySamePlayers}, guest.restarts)
	assert.Equal(t, StateIdle, host.m.State())
	assert.Equal(t, StateIdle, guest.m.State())
}

func TestRequestAccepted_DelayedRestart(t *testing.T) {
	host, guest := newPeer(domain.RoleHost), newPeer(domain.RoleGuest)

	require.True(t, host.m.Request(protocol.ReplaySamePlayers))
	assert.False(t, host.m.CanRequest())
	assert.False(t, host.m.Request(protocol.SelectNewPlayers), "controls disabled while waiting")

	deliver(host, guest)
	require.Equal(t, StateRequestReceived, guest.m.State())
	require.Len(t, guest.prompts, 1)
	assert.Equal(t, "K7Q2ZX", guest.prompts[0].RoomCode)
	assert.Equal(t, int64(10000), guest.prompts[0].Timestamp)

	require.True(t, guest.m.Decide(true))
	assert.Equal(t, []protocol.ReplayAction{protocol.ReplaySamePlayers}, guest.restarts, "accepter restarts at once")

	deliver(guest, host)
	assert.Equal(t, StateResolved, host.m.State())
	assert.Equal(t, Accepted, host.m.Resolution())
	assert.Empty(t, host.restarts)

	host.sched.advance(999 * time.Millisecond)
	assert.Empty(t, host.restarts)
	host.sched.advance(time.Millisecond)
	assert.Equal(t, []protocol.ReplayAction{protocol.ReplaySamePlayers}, host.restarts)
	assert.Equal(t, StateIdle, host.m.State())
}

func TestRequestDeclined_ReenablesControls(t *testing.T) {
	host, guest := newPeer(domain.RoleHost), newPeer(domain.RoleGuest)

	require.True(t, host.m.Request(protocol.SelectNewPlayers))
	deliver(host, guest)
	require.True(t, guest.m.Decide(false))
	assert.Equal(t, StateIdle, guest.m.State())
	assert.Empty(t, guest.restarts)

	msgs := deliver(guest, host)
	require.Len(t, responses(msgs), 1)
	assert.False(t, responses(msgs)[0].Accepted)

	assert.Equal(t, StateIdle, host.m.State())
	assert.Equal(t, Declined, host.m.Resolution())
	assert.Equal(t, 1, host.declined)
	assert.True(t, host.m.CanRequest())
	assert.Empty(t, host.restarts)
}

// crossRequests sends conflicting requests from both sides at the same time.
func crossRequests(t *testing.T) (host, guest *peer) {
	t.Helper()
	host, guest = newPeer(domain.RoleHost), newPeer(domain.RoleGuest)
	require.True(t, host.m.Request(protocol.ReplaySamePlayers))
	require.True(t, guest.m.Request(protocol.SelectNewPlayers))
	return host, guest
}

func TestConflictingRequests_HostRequestWins(t *testing.T) {
	host, guest := crossRequests(t)

	deliver(host, guest)
	require.Len(t, guest.prompts, 1)
	assert.Equal(t, protocol.ReplaySamePlayers, guest.prompts[0].Action)
	assert.Equal(t, StateRequestReceived, guest.m.State())

	deliver(guest, host)
	assert.Empty(t, host.prompts, "host keeps its own request without asking")
	assert.Equal(t, StateRequestSent, host.m.State())
	assert.False(t, host.m.Decide(true))

	// the host's decline of the withdrawn request does not disturb the prompt
	declines := responses(deliver(host, guest))
	require.Len(t, declines, 1)
	assert.False(t, declines[0].Accepted)
	assert.Equal(t, protocol.SelectNewPlayers, declines[0].Action)
	assert.Equal(t, StateRequestReceived, guest.m.State())

	require.True(t, guest.m.Decide(true))
	deliver(guest, host)
	host.sched.advance(time.Second)
	guest.sched.advance(time.Second)

	assert.Equal(t, []protocol.ReplayAction{protocol.ReplaySamePlayers}, host.restarts)
	assert.Equal(t, []protocol.ReplayAction{protocol.ReplaySamePlayers}, guest.restarts)
}

func TestConflictingRequests_DeclineNeverDeadlocks(t *testing.T) {
	cases := []struct {
		name string
		// whether the guest answers before the host's decline of its own
		// request reaches it
		decideFirst bool
	}{
		{name: "guest decides before decline arrives", decideFirst: true},
		{name: "guest decides after decline arrives", decideFirst: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			host, guest := crossRequests(t)

			if tc.decideFirst {
				deliver(host, guest)
				deliver(guest, host)
				require.True(t, guest.m.Decide(false))
				deliver(host, guest)
			} else {
				deliver(guest, host)
				deliver(host, guest)
				require.True(t, guest.m.Decide(false))
			}
			deliver(guest, host)

			assert.Equal(t, StateIdle, host.m.State())
			assert.Equal(t, StateIdle, guest.m.State())
			assert.True(t, host.m.CanRequest())
			assert.True(t, guest.m.CanRequest())
			assert.Equal(t, 1, host.declined)
			assert.Empty(t, host.restarts)
			assert.Empty(t, guest.restarts)
		})
	}
}

func TestConflictingRequests_StaleDeclineDoesNotHitNewRequest(t *testing.T) {
	host, guest := crossRequests(t)

	deliver(host, guest)
	deliver(guest, host)
	require.True(t, guest.m.Decide(false))

	// guest asks again before the old decline has arrived
	require.True(t, guest.m.Request(protocol.SelectNewPlayers))
	deliver(host, guest)
	assert.Equal(t, StateRequestSent, guest.m.State())
	assert.Zero(t, guest.declined)

	deliver(guest, host)
	require.Equal(t, StateRequestReceived, host.m.State())
	require.True(t, host.m.Decide(true))
	deliver(host, guest)
	guest.sched.advance(time.Second)

	assert.Equal(t, []protocol.ReplayAction{protocol.SelectNewPlayers}, host.restarts)
	assert.Equal(t, []protocol.ReplayAction{protocol.SelectNewPlayers}, guest.restarts)
}

func TestOutOfContextMessagesIgnored(t *testing.T) {
	p := newPeer(domain.RoleHost)

	p.m.HandleResponse(protocol.ReplayResponse{Accepted: true, Action: protocol.ReplaySamePlayers})
	assert.Equal(t, StateIdle, p.m.State())
	assert.False(t, p.m.Decide(true))
	assert.Empty(t, p.out.sent)

	p.match.over = false
	p.m.HandleRequest(protocol.ReplayRequest{Action: protocol.ReplaySamePlayers})
	assert.Equal(t, StateIdle, p.m.State())
	assert.Empty(t, p.prompts)
	assert.False(t, p.m.Request(protocol.ReplaySamePlayers), "no requests while the match runs")

	p.match.over = true
	require.True(t, p.m.Request(protocol.ReplaySamePlayers))
	p.m.HandleResponse(protocol.ReplayResponse{Accepted: true, Action: protocol.SelectNewPlayers})
	assert.Equal(t, StateRequestSent, p.m.State(), "response for another action is ignored")
}

func TestRequestNotSentWhenSessionClosed(t *testing.T) {
	p := newPeer(domain.RoleHost)
	p.out.open = false

	assert.False(t, p.m.Request(protocol.ReplaySamePlayers))
	assert.Equal(t, StateIdle, p.m.State())
}

func TestResetCancelsDelayedRestart(t *testing.T) {
	p := newPeer(domain.RoleHost)
	require.True(t, p.m.Request(protocol.ReplaySamePlayers))
	p.m.HandleResponse(protocol.ReplayResponse{Accepted: true, Action: protocol.ReplaySamePlayers})

	p.m.Reset()
	p.sched.advance(time.Minute)
	assert.Empty(t, p.restarts)
}
