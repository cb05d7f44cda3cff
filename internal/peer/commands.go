package peer

import (
	"context"
	"time"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/match"
	"github.com/iamasit07/duelsync/internal/protocol"
)

// State is a point-in-time copy of everything the runtime owns.
type State struct {
	Role         domain.Role   `json:"role"`
	RoomCode     string        `json:"roomCode"`
	SessionOpen  bool          `json:"sessionOpen"`
	Disconnected string        `json:"disconnected,omitempty"`
	Uptime       time.Duration `json:"uptime"`
	Match        match.View    `json:"match"`
	Rematch      RematchState  `json:"rematch"`
}

type RematchState struct {
	State      string                  `json:"state"`
	Resolution string                  `json:"resolution"`
	CanRequest bool                    `json:"canRequest"`
	Pending    *protocol.ReplayRequest `json:"pending,omitempty"`
}

// Snapshot answers from inside the loop, so the copy is consistent.
func (r *Runtime) Snapshot(ctx context.Context) (State, error) {
	return call(ctx, r, r.snapshot)
}

func (r *Runtime) snapshot() State {
	s := State{
		Role:        r.sess.Role(),
		RoomCode:    r.sess.RoomCode(),
		SessionOpen: r.sess.IsOpen(),
		Uptime:      r.clock.Now(),
		Match:       r.engine.View(),
		Rematch: RematchState{
			State:      r.rematch.State().String(),
			Resolution: r.rematch.Resolution().String(),
			CanRequest: r.rematch.CanRequest(),
		},
	}
	if r.disconnected != nil {
		s.Disconnected = r.disconnected.Error()
	}
	if req, ok := r.rematch.Pending(); ok {
		s.Rematch.Pending = &req
	}
	return s
}

// RequestRematch asks the peer to restart the finished match.
func (r *Runtime) RequestRematch(ctx context.Context, action protocol.ReplayAction) (bool, error) {
	return call(ctx, r, func() bool { return r.rematch.Request(action) })
}

// DecideRematch answers the peer's pending rematch request.
func (r *Runtime) DecideRematch(ctx context.Context, accept bool) (bool, error) {
	return call(ctx, r, func() bool { return r.rematch.Decide(accept) })
}

// BeginMatch starts a new match after fighter selection. Only the host starts
// matches; the guest follows start_game.
func (r *Runtime) BeginMatch(ctx context.Context) error {
	if r.sess.Role() != domain.RoleHost {
		return domain.ErrNotHost
	}
	_, err := call(ctx, r, func() struct{} {
		r.engine.Begin()
		r.rematch.Reset()
		return struct{}{}
	})
	return err
}

// SendTestSync sends the current clock to the peer, which logs the skew.
func (r *Runtime) SendTestSync(ctx context.Context) (bool, error) {
	return call(ctx, r, r.engine.SendTestSync)
}
