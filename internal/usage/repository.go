package usage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists per-user usage records. The postgres implementation is the
// production one; tests substitute an in-memory store.
type Store interface {
	// GetOrCreate returns the user's usage record, lazily inserting a
	// zero-initialized row on first touch. The bool reports whether the
	// record was created by this call.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*Record, bool, error)

	// Reset zeroes every counter and starts a new window at the current time.
	Reset(ctx context.Context, userID uuid.UUID) error

	// Increment adds 1 to a single feature counter, leaving the rest untouched.
	Increment(ctx context.Context, userID uuid.UUID, f Feature) error
}

type postgresStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) GetOrCreate(ctx context.Context, userID uuid.UUID) (*Record, bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO usage_records (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, false, fmt.Errorf("ensuring usage record: %w", err)
	}
	created := tag.RowsAffected() > 0

	var (
		rec      Record
		counters []byte
	)
	err = s.pool.QueryRow(ctx,
		`SELECT user_id, counters, reset_at, updated_at FROM usage_records WHERE user_id = $1`,
		userID,
	).Scan(&rec.UserID, &counters, &rec.ResetAt, &rec.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("fetching usage record: %w", err)
	}

	rec.Counters = make(map[Feature]int)
	if len(counters) > 0 {
		if err := json.Unmarshal(counters, &rec.Counters); err != nil {
			return nil, false, fmt.Errorf("decoding usage counters: %w", err)
		}
	}
	return &rec, created, nil
}

func (s *postgresStore) Reset(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE usage_records
		 SET counters = '{}'::jsonb,
		     reset_at = NOW(),
		     updated_at = NOW()
		 WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("resetting usage record: %w", err)
	}
	return nil
}

func (s *postgresStore) Increment(ctx context.Context, userID uuid.UUID, f Feature) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE usage_records
		 SET counters = jsonb_set(counters, ARRAY[$2::text],
		                          to_jsonb(COALESCE((counters->>$2)::int, 0) + 1)),
		     updated_at = NOW()
		 WHERE user_id = $1`, userID, string(f))
	if err != nil {
		return fmt.Errorf("incrementing usage counter: %w", err)
	}
	return nil
}
