package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/feedback"
)

// smoothing dampens the boost until enough observations accumulate, so
// a single thumbs-up cannot saturate the signal.
const smoothing = 4.0

// FeedbackStore persists feedback signals keyed by capability and
// normalized query.
type FeedbackStore struct {
	pool *pgxpool.Pool
}

// NewFeedbackStore creates a feedback store backed by the given pool.
func NewFeedbackStore(pool *pgxpool.Pool) *FeedbackStore {
	return &FeedbackStore{pool: pool}
}

// GetBoost returns the smoothed signal in [-1, 1] for the capability on
// the given normalized query, or 0 when no history exists.
func (s *FeedbackStore) GetBoost(ctx context.Context, capabilityID, normalizedQuery string) (float64, error) {
	const q = `
		SELECT accepted_weight, rejected_weight
		FROM feedback_signal
		WHERE capability_id = $1 AND normalized_query = $2`

	var accepted, rejected float64
	err := s.pool.QueryRow(ctx, q, capabilityID, normalizedQuery).Scan(&accepted, &rejected)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get boost: %w", err)
	}
	return (accepted - rejected) / (accepted + rejected + smoothing), nil
}

// RecordOutcome upserts one feedback observation, accumulating weight on
// the accepted or rejected side.
func (s *FeedbackStore) RecordOutcome(ctx context.Context, o feedback.Outcome) error {
	weight := o.Weight
	if weight <= 0 {
		weight = 1
	}

	accepted, rejected := 0.0, weight
	if o.Accepted {
		accepted, rejected = weight, 0.0
	}

	const q = `
		INSERT INTO feedback_signal (capability_id, normalized_query, accepted_weight, rejected_weight, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (capability_id, normalized_query) DO UPDATE SET
			accepted_weight = feedback_signal.accepted_weight + EXCLUDED.accepted_weight,
			rejected_weight = feedback_signal.rejected_weight + EXCLUDED.rejected_weight,
			updated_at = now()`

	if _, err := s.pool.Exec(ctx, q, o.CapabilityID, o.NormalizedQuery, accepted, rejected); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}
