package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
	"github.com/iamasit07/duelsync/internal/repository/postgres"
	"github.com/iamasit07/duelsync/pkg/auth"
	"github.com/iamasit07/duelsync/pkg/uid"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	initWait   = 10 * time.Second
	saveWait   = 5 * time.Second
)

// RoomService is what the relay needs from the room registry.
type RoomService interface {
	ValidateTicket(ctx context.Context, ticket string) (*auth.TicketClaims, error)
	Attach(code string)
	Detach(code string)
	Close(ctx context.Context, code string)
}

// MatchStore persists results reported by hosts.
type MatchStore interface {
	SaveMatch(ctx context.Context, m postgres.MatchRecord) error
}

// Handler manages WebSocket dependencies
type Handler struct {
	ConnManager *ConnectionManager
	Rooms       RoomService
	Matches     MatchStore
	Upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewHandler creates the relay endpoint. matches may be nil, in which case
// results are logged and dropped.
func NewHandler(cm *ConnectionManager, rooms RoomService, matches MatchStore, checkOrigin func(*http.Request) bool, logger *zap.Logger) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Handler{
		ConnManager: cm,
		Rooms:       rooms,
		Matches:     matches,
		Upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.Named("ws"),
	}
}

// HandleWebSocket is the HTTP handler that upgrades the connection
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade error", zap.Error(err))
		return
	}

	h.handleConnection(r.Context(), conn)
}

// handleConnection manages the lifecycle of a single WebSocket connection
func (h *Handler) handleConnection(ctx context.Context, conn *websocket.Conn) {
	connID := uid.NewConnID()
	log := h.logger.With(zap.String("conn", connID))

	// 1. Wait for Initialization (ticket)
	claims, ok := h.awaitInit(ctx, conn, log)
	if !ok {
		conn.Close()
		return
	}
	room, role := claims.RoomCode, claims.Role
	log = log.With(zap.String("room", room), zap.String("role", string(role)))

	// Set read deadline to detect stale connections
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	h.ConnManager.AddConnection(room, role, connID, conn)
	h.Rooms.Attach(room)
	log.Info("peer attached")

	done := make(chan struct{})
	go h.keepAlive(conn, done)

	// 2. Cleanup on exit
	defer func() {
		close(done)
		h.Rooms.Detach(room)
		if !h.ConnManager.RemoveConnectionIfMatching(room, role, conn) {
			log.Debug("seat already taken by a newer socket")
			return
		}
		log.Info("peer detached")

		other := role.Opponent()
		if h.ConnManager.IsConnected(room, other) {
			h.ConnManager.SendMessage(room, other, protocol.PlayerDisconnected{})
		}
		// no reconnection: the room ends with the first peer to leave
		h.Rooms.Close(context.Background(), room)
	}()

	h.ConnManager.SendMessage(room, role, protocol.RoomJoined{Role: role, RoomCode: room})
	if h.ConnManager.IsConnected(room, role.Opponent()) {
		h.ConnManager.SendMessage(room, domain.RoleHost, protocol.PeerJoined{})
		h.ConnManager.SendMessage(room, domain.RoleGuest, protocol.PeerJoined{})
		log.Info("both peers connected")
	}

	// 3. Main Message Loop
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("peer disconnected unexpectedly", zap.Error(err))
			}
			return
		}
		h.route(room, role, data, log)
	}
}

// awaitInit reads the first frame, which must be an init carrying a valid
// ticket.
func (h *Handler) awaitInit(ctx context.Context, conn *websocket.Conn, log *zap.Logger) (*auth.TicketClaims, bool) {
	conn.SetReadDeadline(time.Now().Add(initWait))

	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Debug("read error during init", zap.Error(err))
		return nil, false
	}

	msg, err := protocol.Decode(data)
	if err != nil {
		log.Info("invalid frame during init", zap.Error(err))
		h.reject(conn, "expected init")
		return nil, false
	}
	hello, isInit := msg.(protocol.Init)
	if !isInit || hello.Ticket == "" {
		log.Info("missing initialization or ticket", zap.String("kind", string(msg.Kind())))
		h.reject(conn, "expected init")
		return nil, false
	}

	claims, err := h.Rooms.ValidateTicket(ctx, hello.Ticket)
	if err != nil {
		log.Info("invalid ticket during init", zap.Error(err))
		h.reject(conn, err.Error())
		return nil, false
	}
	return claims, true
}

func (h *Handler) reject(conn *websocket.Conn, reason string) {
	data, err := protocol.Encode(protocol.ErrorMessage{Message: reason})
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.TextMessage, data)
}

// route forwards a peer frame verbatim to the other seat. Result reports are
// stored instead, and relay control kinds are never accepted from a peer.
func (h *Handler) route(room string, role domain.Role, data []byte, log *zap.Logger) {
	kind, err := protocol.PeekKind(data)
	if err != nil {
		log.Debug("dropping unreadable frame", zap.Error(err))
		return
	}

	switch kind {
	case protocol.KindMatchResult:
		h.saveResult(room, role, data, log)
		return
	case protocol.KindInit, protocol.KindRoomJoined, protocol.KindPeerJoined, protocol.KindError:
		log.Debug("dropping control frame from peer", zap.String("kind", string(kind)))
		return
	}

	if err := h.ConnManager.SendRaw(room, role.Opponent(), data); err != nil {
		log.Warn("forward failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

func (h *Handler) saveResult(room string, role domain.Role, data []byte, log *zap.Logger) {
	if role != domain.RoleHost {
		log.Debug("ignoring match result from guest")
		return
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Info("bad match result", zap.Error(err))
		return
	}
	res := msg.(protocol.MatchResult)

	log.Info("match finished",
		zap.String("match", res.MatchID),
		zap.Int("winner", res.Winner),
		zap.String("reason", res.Reason),
		zap.Ints("health", res.Health))

	if h.Matches == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveWait)
	defer cancel()
	err = h.Matches.SaveMatch(ctx, postgres.MatchRecord{
		MatchID:    res.MatchID,
		RoomCode:   room,
		Winner:     res.Winner,
		Reason:     res.Reason,
		Health:     res.Health,
		DurationMs: res.DurationMs,
		FinishedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Error("saving match result failed", zap.Error(err))
	}
}

// Keep-alive pinger
func (h *Handler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
