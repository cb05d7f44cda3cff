package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
	"github.com/iamasit07/duelsync/internal/repository/postgres"
	"github.com/iamasit07/duelsync/internal/service/room"
	"github.com/iamasit07/duelsync/pkg/auth"
)

type memStore struct {
	mu    sync.Mutex
	saved []postgres.MatchRecord
}

func (m *memStore) SaveMatch(_ context.Context, r postgres.MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, r)
	return nil
}

func (m *memStore) records() []postgres.MatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]postgres.MatchRecord(nil), m.saved...)
}

type relay struct {
	url   string
	rooms *room.Service
	store *memStore
}

func startRelay(t *testing.T) *relay {
	t.Helper()
	logger := zap.NewNop()
	rooms := room.NewService(auth.NewTicketIssuer("test-secret", time.Minute), nil, time.Hour, logger)
	store := &memStore{}
	h := NewHandler(NewConnectionManager(), rooms, store, nil, logger)

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)
	return &relay{url: "ws" + strings.TrimPrefix(srv.URL, "http"), rooms: rooms, store: store}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msg protocol.Message) {
	t.Helper()
	data, err := protocol.Encode(msg)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, data))
}

func read(t *testing.T, ws *websocket.Conn) protocol.Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.Decode(data)
	require.NoError(t, err)
	return msg
}

// pair opens a room and connects both seats through the handshake.
func pair(t *testing.T, r *relay) (host, guest *websocket.Conn, code string) {
	t.Helper()
	ctx := context.Background()
	hostTicket, err := r.rooms.Create(ctx, "")
	require.NoError(t, err)
	guestTicket, err := r.rooms.Join(ctx, hostTicket.RoomCode, "")
	require.NoError(t, err)

	host = dial(t, r.url)
	send(t, host, protocol.Init{Ticket: hostTicket.Ticket})
	joined := read(t, host).(protocol.RoomJoined)
	assert.Equal(t, domain.RoleHost, joined.Role)
	assert.Equal(t, hostTicket.RoomCode, joined.RoomCode)

	guest = dial(t, r.url)
	send(t, guest, protocol.Init{Ticket: guestTicket.Ticket})
	assert.Equal(t, domain.RoleGuest, read(t, guest).(protocol.RoomJoined).Role)

	assert.IsType(t, protocol.PeerJoined{}, read(t, host))
	assert.IsType(t, protocol.PeerJoined{}, read(t, guest))
	return host, guest, hostTicket.RoomCode
}

func TestRelay_ForwardsInOrder(t *testing.T) {
	r := startRelay(t)
	host, guest, _ := pair(t, r)

	for i := int64(1); i <= 5; i++ {
		send(t, host, protocol.Action{Type: protocol.KindMove, Direction: protocol.DirectionRight, Player: domain.RoleHost, Timestamp: i})
	}
	for i := int64(1); i <= 5; i++ {
		a := read(t, guest).(protocol.Action)
		assert.Equal(t, i, a.Timestamp)
	}

	send(t, guest, protocol.HealthUpdate{PlayerIndex: 0, Health: 90})
	assert.Equal(t, protocol.HealthUpdate{PlayerIndex: 0, Health: 90}, read(t, host))
}

func TestRelay_RejectsBadTicket(t *testing.T) {
	r := startRelay(t)
	ws := dial(t, r.url)

	send(t, ws, protocol.Init{Ticket: "not-a-ticket"})
	_, ok := read(t, ws).(protocol.ErrorMessage)
	assert.True(t, ok)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := ws.ReadMessage()
	assert.Error(t, err, "relay should close after rejecting")
}

func TestRelay_RequiresInitFirst(t *testing.T) {
	r := startRelay(t)
	ws := dial(t, r.url)

	send(t, ws, protocol.PeerJoined{})
	_, ok := read(t, ws).(protocol.ErrorMessage)
	assert.True(t, ok)
}

func TestRelay_StoresHostResultWithoutForwarding(t *testing.T) {
	r := startRelay(t)
	host, guest, code := pair(t, r)

	result := protocol.MatchResult{MatchID: "m-1", Winner: 0, Reason: "knockout", Health: []int{40, 0}, DurationMs: 12000}
	send(t, host, result)
	send(t, guest, protocol.MatchResult{MatchID: "forged", Winner: 1})
	send(t, host, protocol.ReplayRequest{Action: protocol.ReplaySamePlayers, RoomCode: code})

	// the replay request arrives first, so neither result was forwarded
	assert.IsType(t, protocol.ReplayRequest{}, read(t, guest))

	require.Eventually(t, func() bool { return len(r.store.records()) == 1 }, 2*time.Second, 10*time.Millisecond)
	saved := r.store.records()[0]
	assert.Equal(t, "m-1", saved.MatchID)
	assert.Equal(t, code, saved.RoomCode)
	assert.Equal(t, []int{40, 0}, saved.Health)
	assert.Equal(t, int64(12000), saved.DurationMs)
}

func TestRelay_DisconnectNotifiesAndClosesRoom(t *testing.T) {
	r := startRelay(t)
	host, guest, code := pair(t, r)

	require.NoError(t, guest.Close())

	assert.IsType(t, protocol.PlayerDisconnected{}, read(t, host))
	require.Eventually(t, func() bool {
		_, ok := r.rooms.Get(context.Background(), code)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}
