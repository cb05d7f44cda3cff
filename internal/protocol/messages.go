// Package protocol defines every message exchanged over the duplex channel as a
// closed set of kinds, decoded once at the transport boundary.
package protocol

import "github.com/iamasit07/duelsync/internal/domain"

type Kind string

// Peer to peer kinds.
const (
	KindMove               Kind = "move"
	KindJump               Kind = "jump"
	KindAttack             Kind = "attack"
	KindSpecial            Kind = "special"
	KindCrouch             Kind = "crouch"
	KindStand              Kind = "stand"
	KindTestSync           Kind = "test_sync"
	KindPlayerUpdate       Kind = "player_update"
	KindHealthUpdate       Kind = "health_update"
	KindStartGame          Kind = "start_game"
	KindReplayRequest      Kind = "replay_request"
	KindReplayResponse     Kind = "replay_response"
	KindPlayerDisconnected Kind = "player_disconnected"
)

// Relay control kinds. These never reach the other peer verbatim.
const (
	KindInit        Kind = "init"
	KindRoomJoined  Kind = "room_joined"
	KindPeerJoined  Kind = "peer_joined"
	KindMatchResult Kind = "match_result"
	KindError       Kind = "error"
)

// IsAction reports whether the kind is one of the replicated gameplay actions.
func (k Kind) IsAction() bool {
	switch k {
	case KindMove, KindJump, KindAttack, KindSpecial, KindCrouch, KindStand, KindTestSync:
		return true
	}
	return false
}

// Message is implemented by every concrete message type.
type Message interface {
	Kind() Kind
}

type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionStop  Direction = "stop"
)

type ReplayAction string

const (
	ReplaySamePlayers ReplayAction = "replay_same_players"
	SelectNewPlayers  ReplayAction = "select_new_players"
)

func (a ReplayAction) Valid() bool {
	return a == ReplaySamePlayers || a == SelectNewPlayers
}

// Snapshot is the position/velocity carried with every action.
type Snapshot struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VelocityX float64 `json:"velocityX"`
	VelocityY float64 `json:"velocityY"`
}

// Action covers move, jump, attack, special, crouch, stand and test_sync. They
// share one envelope; Type selects the kind.
type Action struct {
	Type      Kind        `json:"-"`
	Direction Direction   `json:"direction,omitempty"`
	Position  Snapshot    `json:"position"`
	Player    domain.Role `json:"player"`
	Timestamp int64       `json:"timestamp"`
}

func (a Action) Kind() Kind { return a.Type }

// PlayerUpdate is the continuous position snapshot, independent of actions.
type PlayerUpdate struct {
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	VelocityX float64     `json:"velocityX"`
	VelocityY float64     `json:"velocityY"`
	Frame     int         `json:"frame"`
	FlipX     bool        `json:"flipX"`
	Player    domain.Role `json:"player,omitempty"`
}

func (PlayerUpdate) Kind() Kind { return KindPlayerUpdate }

// HealthUpdate carries a value, not a delta. The last one received wins.
type HealthUpdate struct {
	PlayerIndex int `json:"playerIndex"`
	Health      int `json:"health"`
}

func (HealthUpdate) Kind() Kind { return KindHealthUpdate }

type StartGame struct {
	Health []int `json:"health"`
}

func (StartGame) Kind() Kind { return KindStartGame }

type ReplayRequest struct {
	Action    ReplayAction `json:"action"`
	RoomCode  string       `json:"roomCode"`
	Timestamp int64        `json:"timestamp"`
}

func (ReplayRequest) Kind() Kind { return KindReplayRequest }

type ReplayResponse struct {
	Accepted bool         `json:"accepted"`
	Action   ReplayAction `json:"action"`
}

func (ReplayResponse) Kind() Kind { return KindReplayResponse }

type PlayerDisconnected struct{}

func (PlayerDisconnected) Kind() Kind { return KindPlayerDisconnected }

// Init is the first frame a peer sends to the relay.
type Init struct {
	Ticket string `json:"ticket"`
}

func (Init) Kind() Kind { return KindInit }

type RoomJoined struct {
	Role     domain.Role `json:"role"`
	RoomCode string      `json:"roomCode"`
}

func (RoomJoined) Kind() Kind { return KindRoomJoined }

type PeerJoined struct{}

func (PeerJoined) Kind() Kind { return KindPeerJoined }

// MatchResult is reported by the host when a match ends. The relay stores it.
type MatchResult struct {
	MatchID    string `json:"matchId"`
	Winner     int    `json:"winner"`
	Reason     string `json:"reason"`
	Health     []int  `json:"health"`
	DurationMs int64  `json:"durationMs"`
}

func (MatchResult) Kind() Kind { return KindMatchResult }

type ErrorMessage struct {
	Message string `json:"message"`
}

func (ErrorMessage) Kind() Kind { return KindError }
