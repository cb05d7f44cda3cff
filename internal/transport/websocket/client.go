package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/protocol"
)

const writeWait = 10 * time.Second

type peerConn struct {
	id   string
	conn *websocket.Conn
	// gorilla allows one concurrent writer per socket
	writeMu sync.Mutex
}

func (p *peerConn) write(data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// ConnectionManager tracks the two seats of every room thread-safely
type ConnectionManager struct {
	rooms map[string]map[domain.Role]*peerConn
	mu    sync.RWMutex // Protects the map itself
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		rooms: make(map[string]map[domain.Role]*peerConn),
	}
}

// AddConnection seats conn in room as role. A previous socket in the same seat
// is closed.
func (cm *ConnectionManager) AddConnection(room string, role domain.Role, id string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	seats, ok := cm.rooms[room]
	if !ok {
		seats = make(map[domain.Role]*peerConn, 2)
		cm.rooms[room] = seats
	}
	if old, exists := seats[role]; exists {
		old.conn.Close()
	}
	seats[role] = &peerConn{id: id, conn: conn}
}

// RemoveConnectionIfMatching avoids closing a newer socket when cleaning up an
// older one. It reports whether conn was still seated.
func (cm *ConnectionManager) RemoveConnectionIfMatching(room string, role domain.Role, conn *websocket.Conn) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	seats, ok := cm.rooms[room]
	if !ok {
		return false
	}
	current, exists := seats[role]
	if !exists || current.conn != conn {
		return false
	}
	current.conn.Close()
	delete(seats, role)
	if len(seats) == 0 {
		delete(cm.rooms, room)
	}
	return true
}

func (cm *ConnectionManager) get(room string, role domain.Role) (*peerConn, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	p, ok := cm.rooms[room][role]
	return p, ok
}

// IsConnected reports whether role currently holds a socket in room.
func (cm *ConnectionManager) IsConnected(room string, role domain.Role) bool {
	_, ok := cm.get(room, role)
	return ok
}

// SendRaw forwards an already encoded frame. A missing peer is not an error.
func (cm *ConnectionManager) SendRaw(room string, role domain.Role, data []byte) error {
	p, ok := cm.get(room, role)
	if !ok {
		return nil
	}
	return p.write(data)
}

// SendMessage encodes and sends msg to role in room.
func (cm *ConnectionManager) SendMessage(room string, role domain.Role, msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return cm.SendRaw(room, role, data)
}

// CloseRoom drops every socket seated in room.
func (cm *ConnectionManager) CloseRoom(room string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for _, p := range cm.rooms[room] {
		p.conn.Close()
	}
	delete(cm.rooms, room)
}

func (cm *ConnectionManager) RoomCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.rooms)
}
