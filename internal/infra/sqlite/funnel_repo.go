package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"subscriber-relay-bot/internal/domain"
)

type FunnelRepo struct {
	db *sql.DB
}

func NewFunnelRepo(db *DB) (*FunnelRepo, error) {
	if err := migrateFunnel(db.DB); err != nil {
		return nil, err
	}
	return &FunnelRepo{db: db.DB}, nil
}

func migrateFunnel(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS funnel_hits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    step TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_step ON funnel_hits(step);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_user_step ON funnel_hits(user_id, step);
`)
	if err != nil {
		return fmt.Errorf("migrate funnel_hits: %w", err)
	}
	return nil
}

func (r *FunnelRepo) Hit(step domain.FunnelStep, userID int64) error {
	_, err := r.db.Exec(`INSERT INTO funnel_hits(user_id, step, created_at) VALUES(?,?,?)`, userID, string(step), time.Now())
	return err
}

// Counts returns the number of distinct users per step.
func (r *FunnelRepo) Counts() (map[domain.FunnelStep]int, error) {
	rows, err := r.db.Query(`SELECT step, COUNT(DISTINCT user_id) FROM funnel_hits GROUP BY step`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[domain.FunnelStep]int{}
	for rows.Next() {
		var step string
		var cnt int
		if err := rows.Scan(&step, &cnt); err != nil {
			return nil, err
		}
		out[domain.FunnelStep(step)] = cnt
	}
	return out, rows.Err()
}
