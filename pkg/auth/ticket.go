package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iamasit07/duelsync/internal/domain"
)

// TicketClaims is what a room ticket grants: one seat in one room.
type TicketClaims struct {
	RoomCode string      `json:"room_code"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TicketIssuer signs and validates room tickets.
type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTicketIssuer(secret string, ttl time.Duration) *TicketIssuer {
	return &TicketIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a short-lived ticket for role in room.
func (ti *TicketIssuer) Issue(roomCode string, role domain.Role) (string, error) {
	now := ti.now()
	claims := &TicketClaims{
		RoomCode: roomCode,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   roomCode + ":" + string(role),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Validate checks a ticket and returns its claims.
func (ti *TicketIssuer) Validate(tokenString string) (*TicketClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TicketClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return ti.secret, nil
	}, jwt.WithTimeFunc(ti.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTicket, err)
	}

	claims, ok := token.Claims.(*TicketClaims)
	if !ok || !token.Valid || !claims.Role.Valid() || claims.RoomCode == "" {
		return nil, domain.ErrInvalidTicket
	}
	return claims, nil
}
