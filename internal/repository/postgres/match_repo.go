package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type MatchRepo struct {
	DB *sql.DB
}

func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{DB: db}
}

// MatchRecord is one finished match as reported by the host.
type MatchRecord struct {
	MatchID    string    `json:"matchId"`
	RoomCode   string    `json:"roomCode"`
	Winner     int       `json:"winner"`
	Reason     string    `json:"reason"`
	Health     []int     `json:"health"`
	DurationMs int64     `json:"durationMs"`
	FinishedAt time.Time `json:"finishedAt"`
}

// SaveMatch stores a result. A repeated report for the same match overwrites
// the earlier one.
func (r *MatchRepo) SaveMatch(ctx context.Context, m MatchRecord) error {
	query := `
	INSERT INTO match_result (match_id, room_code, winner, reason, health, duration_ms, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (match_id) DO UPDATE SET
		winner = EXCLUDED.winner,
		reason = EXCLUDED.reason,
		health = EXCLUDED.health,
		duration_ms = EXCLUDED.duration_ms,
		finished_at = EXCLUDED.finished_at;
	`

	health := make([]int64, len(m.Health))
	for i, h := range m.Health {
		health[i] = int64(h)
	}

	_, err := r.DB.ExecContext(ctx, query, m.MatchID, m.RoomCode, m.Winner, m.Reason, pq.Array(health), m.DurationMs, m.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert match result: %v", err)
	}
	return nil
}

// RecentMatches lists the latest results, newest first.
func (r *MatchRepo) RecentMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	query := `
	SELECT match_id, room_code, winner, reason, health, duration_ms, finished_at
	FROM match_result
	ORDER BY finished_at DESC
	LIMIT $1;
	`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query match results: %v", err)
	}
	defer rows.Close()

	var out []MatchRecord
	for rows.Next() {
		var m MatchRecord
		var health pq.Int64Array
		if err := rows.Scan(&m.MatchID, &m.RoomCode, &m.Winner, &m.Reason, &health, &m.DurationMs, &m.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match result: %v", err)
		}
		m.Health = make([]int, len(health))
		for i, h := range health {
			m.Health[i] = int(h)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
