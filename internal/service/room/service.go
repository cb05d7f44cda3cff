// Package room keeps the relay's room registry: codes, passcodes, tickets and
// how many peers are currently attached to each room.
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/pkg/auth"
	"github.com/iamasit07/duelsync/pkg/uid"
)

const (
	cachePrefix     = "room:"
	maxCodeAttempts = 5
)

// CacheRepository mirrors rooms so a restarted relay can still honor tickets.
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type Room struct {
	Code         string    `json:"code"`
	PasscodeHash string    `json:"passcodeHash,omitempty"`
	GuestIssued  bool      `json:"guestIssued"`
	CreatedAt    time.Time `json:"createdAt"`
	LastSeen     time.Time `json:"lastSeen"`
	Attached     int       `json:"-"`
}

// Ticket is handed to a peer when it creates or joins a room.
type Ticket struct {
	RoomCode string `json:"roomCode"`
	Ticket   string `json:"ticket"`
}

type Service struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	tickets *auth.TicketIssuer
	cache   CacheRepository
	idleTTL time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewService builds the registry. cache may be nil.
func NewService(tickets *auth.TicketIssuer, cache CacheRepository, idleTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		rooms:   make(map[string]*Room),
		tickets: tickets,
		cache:   cache,
		idleTTL: idleTTL,
		now:     time.Now,
		logger:  logger.Named("room"),
	}
}

// Create opens a room and returns the host ticket.
func (s *Service) Create(ctx context.Context, passcode string) (Ticket, error) {
	var hash string
	if passcode != "" {
		if err := auth.ValidatePasscode(passcode); err != nil {
			return Ticket{}, err
		}
		h, err := auth.HashPasscode(passcode)
		if err != nil {
			return Ticket{}, fmt.Errorf("hash passcode: %w", err)
		}
		hash = h
	}

	s.mu.Lock()
	var code string
	for i := 0; i < maxCodeAttempts; i++ {
		c, err := uid.GenerateRoomCode()
		if err != nil {
			s.mu.Unlock()
			return Ticket{}, err
		}
		if _, taken := s.rooms[c]; !taken {
			code = c
			break
		}
		s.logger.Debug("collision on code, regenerating", zap.String("code", c))
	}
	if code == "" {
		s.mu.Unlock()
		return Ticket{}, errors.New("could not allocate a room code")
	}
	now := s.now()
	r := &Room{Code: code, PasscodeHash: hash, CreatedAt: now, LastSeen: now}
	s.rooms[code] = r
	snapshot := *r
	s.mu.Unlock()

	s.store(ctx, snapshot)

	tok, err := s.tickets.Issue(code, domain.RoleHost)
	if err != nil {
		return Ticket{}, fmt.Errorf("issue host ticket: %w", err)
	}
	s.logger.Info("room created", zap.String("room", code), zap.Bool("passcode", hash != ""))
	return Ticket{RoomCode: code, Ticket: tok}, nil
}

// Join claims the guest seat.
func (s *Service) Join(ctx context.Context, code, passcode string) (Ticket, error) {
	s.load(ctx, code)

	s.mu.Lock()
	r, ok := s.rooms[code]
	if !ok {
		s.mu.Unlock()
		return Ticket{}, domain.ErrRoomNotFound
	}
	if !auth.CheckPasscode(passcode, r.PasscodeHash) {
		s.mu.Unlock()
		return Ticket{}, domain.ErrInvalidPasscode
	}
	if r.GuestIssued {
		s.mu.Unlock()
		return Ticket{}, domain.ErrRoomFull
	}
	r.GuestIssued = true
	r.LastSeen = s.now()
	snapshot := *r
	s.mu.Unlock()

	s.store(ctx, snapshot)

	tok, err := s.tickets.Issue(code, domain.RoleGuest)
	if err != nil {
		return Ticket{}, fmt.Errorf("issue guest ticket: %w", err)
	}
	s.logger.Info("guest joined room", zap.String("room", code))
	return Ticket{RoomCode: code, Ticket: tok}, nil
}

// ValidateTicket checks the ticket and that its room still exists.
func (s *Service) ValidateTicket(ctx context.Context, ticket string) (*auth.TicketClaims, error) {
	claims, err := s.tickets.Validate(ticket)
	if err != nil {
		return nil, err
	}
	if _, ok := s.Get(ctx, claims.RoomCode); !ok {
		return nil, domain.ErrRoomNotFound
	}
	return claims, nil
}

func (s *Service) Get(ctx context.Context, code string) (Room, bool) {
	s.load(ctx, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return Room{}, false
	}
	return *r, true
}

// Attach records a connected peer.
func (s *Service) Attach(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[code]; ok {
		r.Attached++
		r.LastSeen = s.now()
	}
}

// Detach records a peer leaving.
func (s *Service) Detach(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[code]; ok && r.Attached > 0 {
		r.Attached--
		r.LastSeen = s.now()
	}
}

// Close removes a room. Tickets for it stop validating.
func (s *Service) Close(ctx context.Context, code string) {
	s.mu.Lock()
	_, ok := s.rooms[code]
	delete(s.rooms, code)
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Del(ctx, cachePrefix+code); err != nil {
			s.logger.Warn("cache delete failed", zap.String("room", code), zap.Error(err))
		}
	}
	if ok {
		s.logger.Info("room closed", zap.String("room", code))
	}
}

// SweepIdle closes rooms nobody has been attached to for the idle TTL and
// returns their codes.
func (s *Service) SweepIdle(ctx context.Context) []string {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	var stale []string
	for code, r := range s.rooms {
		if r.Attached == 0 && r.LastSeen.Before(cutoff) {
			stale = append(stale, code)
		}
	}
	s.mu.Unlock()

	for _, code := range stale {
		s.Close(ctx, code)
	}
	return stale
}

func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

func (s *Service) store(ctx context.Context, r Room) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cachePrefix+r.Code, string(data), s.idleTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("room", r.Code), zap.Error(err))
	}
}

// load pulls a room from the cache when this process does not know it.
func (s *Service) load(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	_, known := s.rooms[code]
	s.mu.Unlock()
	if known {
		return
	}

	data, err := s.cache.Get(ctx, cachePrefix+code)
	if err != nil || data == "" {
		return
	}
	var r Room
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		s.logger.Warn("bad cached room", zap.String("room", code), zap.Error(err))
		return
	}

	s.mu.Lock()
	if _, known := s.rooms[code]; !known {
		r.Attached = 0
		r.LastSeen = s.now()
		s.rooms[code] = &r
		s.logger.Info("room restored from cache", zap.String("room", code))
	}
	s.mu.Unlock()
}
