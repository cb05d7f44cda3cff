package uid

import (
	"crypto/rand"
	"fmt"
)

// no 0/O or 1/I so codes can be read out loud
const roomAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const RoomCodeLength = 6

// GenerateRoomCode returns a short human friendly room code.
func GenerateRoomCode() (string, error) {
	bytes := make([]byte, RoomCodeLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate room code: %v", err)
	}
	for i, b := range bytes {
		bytes[i] = roomAlphabet[int(b)%len(roomAlphabet)]
	}
	return string(bytes), nil
}

// ValidRoomCode reports whether code could have come from GenerateRoomCode.
func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		ok := false
		for j := 0; j < len(roomAlphabet); j++ {
			if code[i] == roomAlphabet[j] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
