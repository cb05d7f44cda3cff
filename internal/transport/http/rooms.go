package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/service/room"
	"github.com/iamasit07/duelsync/pkg/auth"
	"github.com/iamasit07/duelsync/pkg/uid"
)

type RoomService interface {
	Create(ctx context.Context, passcode string) (room.Ticket, error)
	Join(ctx context.Context, code, passcode string) (room.Ticket, error)
}

type RoomHandler struct {
	Rooms  RoomService
	logger *zap.Logger
}

func NewRoomHandler(rooms RoomService, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{Rooms: rooms, logger: logger.Named("rooms")}
}

type roomRequest struct {
	Passcode string `json:"passcode"`
}

// bindPasscode accepts an empty body as "no passcode".
func bindPasscode(c *gin.Context) (string, bool) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return "", false
	}
	return req.Passcode, true
}

// CreateRoom opens a room and returns the host ticket
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	passcode, ok := bindPasscode(c)
	if !ok {
		return
	}

	ticket, err := h.Rooms.Create(c.Request.Context(), passcode)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// JoinRoom claims the guest seat of /api/rooms/:code
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	if !uid.ValidRoomCode(code) {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrRoomNotFound.Error()})
		return
	}
	passcode, ok := bindPasscode(c)
	if !ok {
		return
	}

	ticket, err := h.Rooms.Join(c.Request.Context(), code, passcode)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *RoomHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRoomFull):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidPasscode):
		status = http.StatusForbidden
	case errors.Is(err, auth.ErrPasscodeFormat):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("room request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
