package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGStore persists balances in PostgreSQL. Clamping happens in SQL so
// concurrent removals can never drive a stored balance negative.
type PGStore struct {
	db *sql.DB
}

// NewPGStore creates a store over an already-open database. The schema is
// managed by the database package.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Get(ctx context.Context, caseID, player string) (int, error) {
	var balance int
	err := s.db.QueryRowContext(ctx, `
		SELECT balance FROM case_keys WHERE case_id = $1 AND player = $2
	`, caseID, player).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (s *PGStore) Set(ctx context.Context, caseID, player string, amount int) error {
	if amount < 0 {
		amount = 0
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO case_keys (case_id, player, balance, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (case_id, player)
		DO UPDATE SET balance = EXCLUDED.balance, updated_at = NOW()
	`, caseID, player, amount)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

func (s *PGStore) Add(ctx context.Context, caseID, player string, amount int) (int, error) {
	var balance int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO case_keys (case_id, player, balance, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (case_id, player)
		DO UPDATE SET balance = case_keys.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance
	`, caseID, player, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("add balance: %w", err)
	}
	return balance, nil
}

func (s *PGStore) Remove(ctx context.Context, caseID, player string, amount int) (int, error) {
	var balance int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO case_keys (case_id, player, balance, updated_at)
		VALUES ($1, $2, 0, NOW())
		ON CONFLICT (case_id, player)
		DO UPDATE SET balance = GREATEST(0, case_keys.balance - $3), updated_at = NOW()
		RETURNING balance
	`, caseID, player, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("remove balance: %w", err)
	}
	return balance, nil
}

// Close is a no-op; the database handle is owned by the caller.
func (s *PGStore) Close() error {
	return nil
}
