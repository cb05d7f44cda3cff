package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/peer"
	"github.com/iamasit07/duelsync/internal/protocol"
)

// autopilot plays the part of the person in front of the screen: it asks for
// a rematch when a match ends and answers the other side's requests.
type autopilot struct {
	ctx    context.Context
	role   domain.Role
	action protocol.ReplayAction // empty means never rematch
	rt     *peer.Runtime
	logger *zap.Logger
}

func newAutopilot(ctx context.Context, role domain.Role, policy string, logger *zap.Logger) (*autopilot, error) {
	a := &autopilot{ctx: ctx, role: role, logger: logger.Named("autopilot")}
	switch policy {
	case "same":
		a.action = protocol.ReplaySamePlayers
	case "new":
		a.action = protocol.SelectNewPlayers
	case "none":
	default:
		return nil, fmt.Errorf("unknown rematch policy %q", policy)
	}
	return a, nil
}

func (a *autopilot) attach(rt *peer.Runtime) { a.rt = rt }

// callbacks run on the runtime goroutine, so anything that drives the runtime
// back is sent from a fresh goroutine.
func (a *autopilot) callbacks() peer.Callbacks {
	return peer.Callbacks{
		OnHealthChanged: func(index, health int) {
			a.logger.Debug("health", zap.Int("fighter", index), zap.Int("health", health))
		},
		OnMatchEnded: func(res domain.Result) {
			a.logger.Info("match ended",
				zap.Int("winner", res.Winner),
				zap.String("reason", string(res.Reason)),
				zap.Ints("health", res.Health[:]),
				zap.Duration("duration", res.Duration))
			if a.action == "" {
				return
			}
			go func() {
				if _, err := a.rt.RequestRematch(a.ctx, a.action); err != nil {
					a.logger.Debug("rematch request not sent", zap.Error(err))
				}
			}()
		},
		OnRematchDecisionNeeded: func(req protocol.ReplayRequest) {
			accept := a.action != ""
			a.logger.Info("rematch requested by opponent", zap.String("action", string(req.Action)), zap.Bool("accept", accept))
			go a.rt.DecideRematch(a.ctx, accept)
		},
		OnRematchDeclined: func(action protocol.ReplayAction) {
			a.logger.Info("opponent declined the rematch", zap.String("action", string(action)))
		},
		OnReturnToSelection: func() {
			if a.role != domain.RoleHost {
				return
			}
			a.logger.Info("fighters reselected, starting next match")
			go func() {
				if err := a.rt.BeginMatch(a.ctx); err != nil {
					a.logger.Warn("could not begin match", zap.Error(err))
				}
			}()
		},
		OnDisconnected: func(err error) {
			a.logger.Warn("opponent gone, returning to menu", zap.Error(err))
		},
	}
}
