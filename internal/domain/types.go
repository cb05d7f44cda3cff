package domain

// Role identifies which peer controls a fighter. The host owns fighter 0 and
// the guest owns fighter 1.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

const (
	HostIndex  = 0
	GuestIndex = 1
)

func (r Role) Valid() bool {
	return r == RoleHost || r == RoleGuest
}

// Index returns the fighter index owned by the role, or -1 for an unknown role.
func (r Role) Index() int {
	switch r {
	case RoleHost:
		return HostIndex
	case RoleGuest:
		return GuestIndex
	default:
		return -1
	}
}

func (r Role) Opponent() Role {
	if r == RoleHost {
		return RoleGuest
	}
	return RoleHost
}

// RoleForIndex maps a fighter index back to its owning role.
func RoleForIndex(index int) (Role, bool) {
	switch index {
	case HostIndex:
		return RoleHost, true
	case GuestIndex:
		return RoleGuest, true
	default:
		return "", false
	}
}

type Facing string

const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

type AnimationState string

const (
	AnimIdle    AnimationState = "idle"
	AnimWalk    AnimationState = "walk"
	AnimAttack  AnimationState = "attack"
	AnimSpecial AnimationState = "special"
	AnimCrouch  AnimationState = "crouch"
)

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// basic errors that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrUnknownFighter     Error = "unknown fighter"
	ErrMatchNotStarted    Error = "match not started"
	ErrSessionClosed      Error = "session closed"
	ErrPeerDisconnected   Error = "peer disconnected"
	ErrConnectionLost     Error = "connection lost"
	ErrRoomNotFound       Error = "room not found"
	ErrRoomFull           Error = "room already has a guest"
	ErrInvalidPasscode    Error = "invalid passcode"
	ErrInvalidTicket      Error = "invalid ticket"
	ErrHandshakeFailed    Error = "relay handshake failed"
	ErrUnsupportedMessage Error = "unsupported message"
	ErrNotHost            Error = "only the host can begin a match"
)
