package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
)

// Session is the single live match attempt of this process. It is built once
// by Join and handed to every component that needs to talk to the peer.
type Session struct {
	role     domain.Role
	roomCode string
	conn     *Conn
	logger   *zap.Logger
}

// Join connects, presents the room ticket and waits for the relay to assign a
// role. Messages that arrive after room_joined stay queued on the connection.
func Join(ctx context.Context, conn *Conn, ticket string, logger *zap.Logger) (*Session, error) {
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}

	if !conn.Send(protocol.Init{Ticket: ticket}) {
		conn.Close()
		return nil, fmt.Errorf("%w: init not sent", domain.ErrHandshakeFailed)
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return nil, ctx.Err()
		case msg, ok := <-conn.Inbound():
			if !ok {
				return nil, fmt.Errorf("%w: %v", domain.ErrHandshakeFailed, conn.Err())
			}
			switch m := msg.(type) {
			case protocol.RoomJoined:
				s := &Session{role: m.Role, roomCode: m.RoomCode, conn: conn, logger: logger.Named("session")}
				s.logger.Info("joined room", zap.String("room", m.RoomCode), zap.String("role", string(m.Role)))
				return s, nil
			case protocol.ErrorMessage:
				conn.Close()
				return nil, fmt.Errorf("%w: %s", domain.ErrHandshakeFailed, m.Message)
			default:
				logger.Debug("ignoring message before room_joined", zap.String("kind", string(msg.Kind())))
			}
		}
	}
}

// NewSession wraps an already joined connection. Used when the role is known
// out of band.
func NewSession(conn *Conn, role domain.Role, roomCode string, logger *zap.Logger) *Session {
	return &Session{role: role, roomCode: roomCode, conn: conn, logger: logger.Named("session")}
}

func (s *Session) Role() domain.Role { return s.role }

func (s *Session) RoomCode() string { return s.roomCode }

func (s *Session) State() State { return s.conn.State() }

func (s *Session) IsOpen() bool { return s.conn.IsOpen() }

func (s *Session) Send(msg protocol.Message) bool { return s.conn.Send(msg) }

func (s *Session) Inbound() <-chan protocol.Message { return s.conn.Inbound() }

func (s *Session) Close() error { return s.conn.Close() }
