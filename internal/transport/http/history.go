package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/repository/postgres"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type MatchLister interface {
	RecentMatches(ctx context.Context, limit int) ([]postgres.MatchRecord, error)
}

type HistoryHandler struct {
	Matches MatchLister
	logger  *zap.Logger
}

// NewHistoryHandler serves stored results. matches may be nil when the relay
// runs without a database.
func NewHistoryHandler(matches MatchLister, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{Matches: matches, logger: logger.Named("history")}
}

type matchHistoryItem struct {
	MatchID    string `json:"matchId"`
	RoomCode   string `json:"roomCode"`
	Winner     int    `json:"winner"` // -1 on a draw
	Reason     string `json:"reason"`
	Health     []int  `json:"health"`
	DurationMs int64  `json:"durationMs"`
	FinishedAt string `json:"finishedAt"`
}

// GetHistory returns the most recent results, newest first. ?limit= caps the
// page size.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History is disabled"})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.Matches.RecentMatches(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to fetch history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	history := make([]matchHistoryItem, 0, len(records))
	for _, m := range records {
		history = append(history, matchHistoryItem{
			MatchID:    m.MatchID,
			RoomCode:   m.RoomCode,
			Winner:     m.Winner,
			Reason:     m.Reason,
			Health:     m.Health,
			DurationMs: m.DurationMs,
			FinishedAt: m.FinishedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, history)
}
