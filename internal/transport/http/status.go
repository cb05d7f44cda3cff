package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type RoomCounter interface {
	Count() int
}

type ConnCounter interface {
	RoomCount() int
}

type StatusHandler struct {
	Rooms RoomCounter
	Conns ConnCounter
}

func NewStatusHandler(rooms RoomCounter, conns ConnCounter) *StatusHandler {
	return &StatusHandler{Rooms: rooms, Conns: conns}
}

type statusResponse struct {
	Status    string `json:"status"`
	OpenRooms int    `json:"openRooms"`
	LiveRooms int    `json:"liveRooms"`
}

// GetStatus reports how many rooms are registered and how many have sockets
func (h *StatusHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		Status:    "ok",
		OpenRooms: h.Rooms.Count(),
		LiveRooms: h.Conns.RoomCount(),
	})
}
