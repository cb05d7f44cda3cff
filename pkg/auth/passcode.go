package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const maxPasscodeLen = 64

var ErrPasscodeFormat = errors.New("bad passcode")

// HashPasscode hashes a room passcode using bcrypt
func HashPasscode(passcode string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasscode checks a passcode against its hash. A room without a hash
// accepts anything.
func CheckPasscode(passcode, hash string) bool {
	if hash == "" {
		return true
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode))
	return err == nil
}

// ValidatePasscode enforces passcode rules: 4 to 64 characters.
func ValidatePasscode(passcode string) error {
	n := utf8.RuneCountInString(passcode)
	if n < 4 || len(passcode) > maxPasscodeLen {
		return fmt.Errorf("%w: must be 4 to %d characters", ErrPasscodeFormat, maxPasscodeLen)
	}
	return nil
}
