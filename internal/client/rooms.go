package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iamasit07/duelsync/internal/domain"
)

// RoomTicket is what the relay hands out when a room is created or joined.
type RoomTicket struct {
	RoomCode string `json:"roomCode"`
	Ticket   string `json:"ticket"`
}

// RoomsClient talks to the relay's room API.
type RoomsClient struct {
	baseURL string
	http    *http.Client
}

func NewRoomsClient(baseURL string) *RoomsClient {
	return &RoomsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateRoom opens a new room and returns the host ticket.
func (c *RoomsClient) CreateRoom(ctx context.Context, passcode string) (RoomTicket, error) {
	return c.post(ctx, "/api/rooms", passcode)
}

// JoinRoom claims the guest seat of an existing room.
func (c *RoomsClient) JoinRoom(ctx context.Context, code, passcode string) (RoomTicket, error) {
	return c.post(ctx, "/api/rooms/"+code+"/join", passcode)
}

func (c *RoomsClient) post(ctx context.Context, path, passcode string) (RoomTicket, error) {
	body, err := json.Marshal(map[string]string{"passcode": passcode})
	if err != nil {
		return RoomTicket{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return RoomTicket{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return RoomTicket{}, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusNotFound:
		return RoomTicket{}, domain.ErrRoomNotFound
	case http.StatusConflict:
		return RoomTicket{}, domain.ErrRoomFull
	case http.StatusForbidden:
		return RoomTicket{}, domain.ErrInvalidPasscode
	default:
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return RoomTicket{}, fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, e.Error)
	}

	var t RoomTicket
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return RoomTicket{}, fmt.Errorf("decode room ticket: %w", err)
	}
	return t, nil
}
