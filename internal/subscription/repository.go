package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	Upsert(ctx context.Context, sub *Subscription) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	query := `
		SELECT user_id, plan, status, current_period_end, created_at, updated_at
		FROM subscriptions WHERE user_id = $1`

	sub := &Subscription{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&sub.UserID, &sub.Plan, &sub.Status, &sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying subscription: %w", err)
	}
	return sub, nil
}

// Upsert writes the subscription row produced by a billing webhook.
func (r *postgresRepository) Upsert(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, plan, status, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET plan = EXCLUDED.plan,
		    status = EXCLUDED.status,
		    current_period_end = EXCLUDED.current_period_end,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		sub.UserID, sub.Plan, sub.Status, sub.CurrentPeriodEnd, time.Now())
	if err != nil {
		return fmt.Errorf("upserting subscription: %w", err)
	}
	return nil
}
