package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

// PGStore keeps points on the users table.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) PointsBalance(ctx context.Context, userID int64) (int, error) {
	var points int
	err := s.pool.QueryRow(ctx,
		`SELECT loyalty_points FROM users WHERE id = $1`, userID).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query points for user %d: %w", userID, err)
	}
	return points, nil
}

func (s *PGStore) AddPoints(ctx context.Context, userID int64, points int) error {
	return s.adjust(ctx, userID, points)
}

func (s *PGStore) DeductPoints(ctx context.Context, userID int64, points int) error {
	return s.adjust(ctx, userID, -points)
}

func (s *PGStore) adjust(ctx context.Context, userID int64, delta int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET loyalty_points = loyalty_points + $1 WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("adjust points for user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
