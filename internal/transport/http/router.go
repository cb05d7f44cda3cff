package http

import (
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Rooms     *RoomHandler
	History   *HistoryHandler
	Status    *StatusHandler
	WebSocket gin.HandlerFunc
}

// NewRouter wires the relay's public surface onto a gin engine.
func NewRouter(h Handlers, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)

	router.GET("/healthz", h.Status.GetStatus)

	api := router.Group("/api")
	{
		api.POST("/rooms", h.Rooms.CreateRoom)
		api.POST("/rooms/:code/join", h.Rooms.JoinRoom)
		api.GET("/matches", h.History.GetHistory)
	}

	// auth happens inside the socket via the init ticket
	if h.WebSocket != nil {
		router.GET("/ws", h.WebSocket)
	}
	return router
}
