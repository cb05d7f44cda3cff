// Package rematch negotiates whether a finished match restarts with the same
// fighters or returns to selection. Both peers run one Machine; it is driven
// from the goroutine that owns the match.
package rematch

import (
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
)

type State int

const (
	StateIdle State = iota
	StateRequestSent
	StateRequestReceived
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestSent:
		return "request_sent"
	case StateRequestReceived:
		return "request_received"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

type Resolution int

const (
	Unresolved Resolution = iota
	Accepted
	Declined
)

func (r Resolution) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Declined:
		return "declined"
	default:
		return "unresolved"
	}
}

type Sender interface {
	Send(msg protocol.Message) bool
	IsOpen() bool
}

type Clock interface {
	Now() time.Duration
}

type Scheduler interface {
	After(d time.Duration, fn func())
}

// Match is what the machine needs to know about the match it follows.
type Match interface {
	Over() bool
}

// Callbacks are invoked on the owning goroutine. Nil hooks are skipped.
type Callbacks struct {
	// OnDecisionNeeded asks the user to answer an inbound request with Decide.
	OnDecisionNeeded func(req protocol.ReplayRequest)
	// OnRestart performs the agreed restart.
	OnRestart func(action protocol.ReplayAction)
	// OnRequestDeclined re-enables the request controls.
	OnRequestDeclined func(action protocol.ReplayAction)
}

const DefaultRestartDelay = time.Second

type Deps struct {
	// Role breaks ties between conflicting requests: the host's request wins.
	Role         domain.Role
	Session      Sender
	Match        Match
	Clock        Clock
	Scheduler    Scheduler
	RoomCode     string
	RestartDelay time.Duration
	Logger       *zap.Logger
}

type Machine struct {
	role     domain.Role
	sess     Sender
	match    Match
	clock    Clock
	sched    Scheduler
	roomCode string
	delay    time.Duration
	cb       Callbacks
	logger   *zap.Logger

	state      State
	resolution Resolution
	// action of our outstanding request while in RequestSent
	sent protocol.ReplayAction
	// our request withdrawn in favour of the host's; its decline is still due
	withdrawn protocol.ReplayAction
	// inbound request awaiting Decide
	incoming *protocol.ReplayRequest
	// bumped on every restart so a stale delayed restart does nothing
	gen uint64
}

func New(deps Deps, cb Callbacks) *Machine {
	delay := deps.RestartDelay
	if delay <= 0 {
		delay = DefaultRestartDelay
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		role:     deps.Role,
		sess:     deps.Session,
		match:    deps.Match,
		clock:    deps.Clock,
		sched:    deps.Scheduler,
		roomCode: deps.RoomCode,
		delay:    delay,
		cb:       cb,
		logger:   logger.Named("rematch"),
	}
}

func (m *Machine) State() State { return m.state }

// Resolution is the outcome of the last negotiation. It is cleared when a new
// one starts.
func (m *Machine) Resolution() Resolution { return m.resolution }

// CanRequest reports whether the local request controls are enabled.
func (m *Machine) CanRequest() bool {
	return m.state == StateIdle && m.match.Over()
}

// Pending returns the inbound request awaiting a decision, if any.
func (m *Machine) Pending() (protocol.ReplayRequest, bool) {
	if m.state != StateRequestReceived || m.incoming == nil {
		return protocol.ReplayRequest{}, false
	}
	return *m.incoming, true
}

// Request sends a local rematch request. It reports false when the controls
// are disabled or the message could not be sent.
func (m *Machine) Request(action protocol.ReplayAction) bool {
	if !action.Valid() {
		m.logger.Warn("invalid rematch action", zap.String("action", string(action)))
		return false
	}
	if !m.CanRequest() {
		m.logger.Debug("rematch request disabled", zap.Stringer("state", m.state), zap.Bool("matchOver", m.match.Over()))
		return false
	}

	ok := m.sess.IsOpen() && m.sess.Send(protocol.ReplayRequest{
		Action:    action,
		RoomCode:  m.roomCode,
		Timestamp: m.clock.Now().Milliseconds(),
	})
	if !ok {
		m.logger.Warn("rematch request not sent", zap.String("action", string(action)))
		return false
	}

	m.state = StateRequestSent
	m.resolution = Unresolved
	m.sent = action
	m.logger.Info("rematch requested", zap.String("action", string(action)))
	return true
}

// HandleRequest processes the peer's rematch request.
func (m *Machine) HandleRequest(req protocol.ReplayRequest) {
	if !m.match.Over() {
		m.logger.Debug("ignoring rematch request while match is running")
		return
	}

	switch m.state {
	case StateIdle:
		m.prompt(req)

	case StateRequestSent:
		if req.Action == m.sent {
			// both asked for the same thing: accept without asking
			m.logger.Info("simultaneous rematch request, auto-accepting", zap.String("action", string(req.Action)))
			m.respond(true, req.Action)
			m.resolve(Accepted)
			m.restart(req.Action)
			return
		}
		// crossed requests for different actions: the host's stands and the
		// guest withdraws its own and answers the host's instead
		if m.role == domain.RoleHost {
			m.logger.Info("conflicting rematch request, keeping ours",
				zap.String("ours", string(m.sent)),
				zap.String("theirs", string(req.Action)))
			m.respond(false, req.Action)
			return
		}
		m.logger.Info("conflicting rematch request, withdrawing ours",
			zap.String("ours", string(m.sent)),
			zap.String("theirs", string(req.Action)))
		m.withdrawn = m.sent
		m.sent = ""
		m.prompt(req)

	default:
		m.logger.Debug("ignoring out of context rematch request", zap.Stringer("state", m.state))
	}
}

// Decide answers the pending inbound request.
func (m *Machine) Decide(accept bool) bool {
	if m.state != StateRequestReceived || m.incoming == nil {
		m.logger.Debug("no rematch request to decide", zap.Stringer("state", m.state))
		return false
	}
	req := *m.incoming
	m.incoming = nil

	m.respond(accept, req.Action)
	if accept {
		m.resolve(Accepted)
		m.restart(req.Action)
		return true
	}

	m.state = StateIdle
	m.resolution = Declined
	m.logger.Info("rematch request declined", zap.Stringer("state", m.state))
	return true
}

// HandleResponse processes the peer's answer to our request.
func (m *Machine) HandleResponse(resp protocol.ReplayResponse) {
	if m.withdrawn != "" && !resp.Accepted && resp.Action == m.withdrawn {
		m.withdrawn = ""
		m.logger.Debug("withdrawn rematch request declined", zap.String("action", string(resp.Action)))
		return
	}
	if m.state != StateRequestSent || resp.Action != m.sent {
		m.logger.Debug("ignoring out of context rematch response",
			zap.Stringer("state", m.state),
			zap.String("action", string(resp.Action)))
		return
	}

	if !resp.Accepted {
		m.state = StateIdle
		m.resolution = Declined
		m.logger.Info("our rematch request was declined")
		if m.cb.OnRequestDeclined != nil {
			m.cb.OnRequestDeclined(resp.Action)
		}
		return
	}

	m.resolve(Accepted)
	gen := m.gen
	action := resp.Action
	m.sched.After(m.delay, func() {
		if m.gen != gen || m.state != StateResolved {
			return
		}
		m.restart(action)
	})
}

// Reset returns to Idle when a match starts outside of a negotiation.
func (m *Machine) Reset() {
	m.gen++
	m.state = StateIdle
	m.incoming = nil
	m.sent = ""
}

func (m *Machine) prompt(req protocol.ReplayRequest) {
	m.incoming = &req
	m.resolution = Unresolved
	m.state = StateRequestReceived
	m.logger.Info("rematch decision needed", zap.String("action", string(req.Action)))
	if m.cb.OnDecisionNeeded != nil {
		m.cb.OnDecisionNeeded(req)
	}
}

func (m *Machine) respond(accept bool, action protocol.ReplayAction) {
	if !m.sess.IsOpen() || !m.sess.Send(protocol.ReplayResponse{Accepted: accept, Action: action}) {
		m.logger.Warn("rematch response not sent", zap.Bool("accepted", accept))
	}
}

func (m *Machine) resolve(r Resolution) {
	m.state = StateResolved
	m.resolution = r
}

func (m *Machine) restart(action protocol.ReplayAction) {
	m.Reset()
	m.logger.Info("restarting", zap.String("action", string(action)))
	if m.cb.OnRestart != nil {
		m.cb.OnRestart(action)
	}
}
