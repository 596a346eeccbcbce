package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"subscriber-relay-bot/internal/domain"
)

type RegistryStore struct {
	db  *sql.DB
	dsn string
}

func NewRegistryStore(db *DB) (*RegistryStore, error) {
	if err := migrateUserNumbers(db.DB); err != nil {
		return nil, err
	}
	return &RegistryStore{db: db.DB, dsn: db.dsn}, nil
}

func migrateUserNumbers(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS user_numbers (
    user_id INTEGER PRIMARY KEY,
    number INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("migrate user_numbers: %w", err)
	}
	return nil
}

func (r *RegistryStore) Load(ctx context.Context) (domain.Registry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, number FROM user_numbers`)
	if err != nil {
		return domain.Registry{}, fmt.Errorf("query user_numbers: %w", err)
	}
	defer rows.Close()

	reg := domain.NewRegistry()
	seen := make(map[int]int64)
	for rows.Next() {
		var id int64
		var num int
		if err := rows.Scan(&id, &num); err != nil {
			return domain.Registry{}, &domain.CorruptDataError{Source: r.dsn, Err: err}
		}
		if num <= 0 {
			return domain.Registry{}, &domain.CorruptDataError{Source: r.dsn, Err: fmt.Errorf("user %d has non-positive number %d", id, num)}
		}
		if other, dup := seen[num]; dup {
			return domain.Registry{}, &domain.CorruptDataError{Source: r.dsn, Err: fmt.Errorf("number %d assigned to both %d and %d", num, other, id)}
		}
		seen[num] = id
		reg.Assignments[id] = num
	}
	if err := rows.Err(); err != nil {
		return domain.Registry{}, fmt.Errorf("scan user_numbers: %w", err)
	}
	reg.NextSequence = domain.NextAfter(reg.Assignments)
	return reg, nil
}

// Persist makes the table match reg in a single transaction.
func (r *RegistryStore) Persist(ctx context.Context, reg domain.Registry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	existing, err := existingIDs(ctx, tx)
	if err != nil {
		return err
	}
	for _, id := range existing {
		if _, ok := reg.Assignments[id]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_numbers WHERE user_id = ?`, id); err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
	}

	now := time.Now()
	for id, num := range reg.Assignments {
		// upsert by primary key, keeping the original created_at
		_, err := tx.ExecContext(ctx, `INSERT INTO user_numbers(user_id, number, created_at) VALUES(?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET number = excluded.number`, id, num, now)
		if err != nil {
			return fmt.Errorf("upsert user %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func existingIDs(ctx context.Context, tx *sql.Tx) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT user_id FROM user_numbers`)
	if err != nil {
		return nil, fmt.Errorf("query user ids: %w", err)
	}
	defer rows.Close()
	ids := make([]int64, 0, 128)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
