package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownKind = errors.New("unknown message kind")
	ErrMalformed   = errors.New("malformed message")
)

// Encode serializes a message as a flat JSON object with a "type" field.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformed)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}

	kind, _ := json.Marshal(msg.Kind())
	fields["type"] = kind

	return json.Marshal(fields)
}

// PeekKind reads only the discriminator. The relay uses it to route frames
// without decoding their payload.
func PeekKind(data []byte) (Kind, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if head.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return head.Type, nil
}

// Decode turns one inbound frame into a concrete message. Callers drop the
// frame when it returns an error.
func Decode(data []byte) (Message, error) {
	kind, err := PeekKind(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindMove, KindJump, KindAttack, KindSpecial, KindCrouch, KindStand, KindTestSync:
		var a Action
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, kind, err)
		}
		a.Type = kind
		if err := validateAction(a); err != nil {
			return nil, err
		}
		return a, nil
	case KindPlayerUpdate:
		return decodeAs[PlayerUpdate](kind, data)
	case KindHealthUpdate:
		return decodeAs[HealthUpdate](kind, data)
	case KindStartGame:
		m, err := decodeAs[StartGame](kind, data)
		if err != nil {
			return nil, err
		}
		if len(m.Health) != 2 {
			return nil, fmt.Errorf("%w: start_game needs two health values, got %d", ErrMalformed, len(m.Health))
		}
		return m, nil
	case KindReplayRequest:
		m, err := decodeAs[ReplayRequest](kind, data)
		if err != nil {
			return nil, err
		}
		if !m.Action.Valid() {
			return nil, fmt.Errorf("%w: replay_request action %q", ErrMalformed, m.Action)
		}
		return m, nil
	case KindReplayResponse:
		m, err := decodeAs[ReplayResponse](kind, data)
		if err != nil {
			return nil, err
		}
		if !m.Action.Valid() {
			return nil, fmt.Errorf("%w: replay_response action %q", ErrMalformed, m.Action)
		}
		return m, nil
	case KindPlayerDisconnected:
		return PlayerDisconnected{}, nil
	case KindInit:
		return decodeAs[Init](kind, data)
	case KindRoomJoined:
		m, err := decodeAs[RoomJoined](kind, data)
		if err != nil {
			return nil, err
		}
		if !m.Role.Valid() {
			return nil, fmt.Errorf("%w: room_joined role %q", ErrMalformed, m.Role)
		}
		return m, nil
	case KindPeerJoined:
		return PeerJoined{}, nil
	case KindMatchResult:
		return decodeAs[MatchResult](kind, data)
	case KindError:
		return decodeAs[ErrorMessage](kind, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func decodeAs[T Message](kind Kind, data []byte) (T, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrMalformed, kind, err)
	}
	return m, nil
}

func validateAction(a Action) error {
	if !a.Player.Valid() {
		return fmt.Errorf("%w: %s from unknown player %q", ErrMalformed, a.Type, a.Player)
	}
	if a.Type != KindMove {
		return nil
	}
	switch a.Direction {
	case DirectionLeft, DirectionRight, DirectionStop:
		return nil
	default:
		return fmt.Errorf("%w: move direction %q", ErrMalformed, a.Direction)
	}
}
