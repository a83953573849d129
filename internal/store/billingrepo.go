package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// BillingRepo stores the past-due episode of an organization.
// A row exists only while the organization's subscription is past due.
type BillingRepo struct {
	db *DB
}

func NewBillingRepo(db *DB) *BillingRepo {
	return &BillingRepo{db: db}
}

// Get returns (nil, nil) when no past-due episode is recorded.
func (r *BillingRepo) Get(ctx context.Context, orgID int64) (*BillingStatus, error) {
	const query = `
		SELECT org_id, past_due_started_at, last_warning_sent_at, service_paused_sent_at
		FROM org_billing_status
		WHERE org_id = ?
	`

	var (
		bs       BillingStatus
		warnedAt sql.NullTime
		pausedAt sql.NullTime
	)
	err := r.db.Reader.QueryRowContext(ctx, query, orgID).
		Scan(&bs.OrgID, &bs.PastDueStartedAt, &warnedAt, &pausedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get billing status for organization %d: %w", orgID, err)
	}

	if warnedAt.Valid {
		bs.LastWarningSentAt = &warnedAt.Time
	}
	if pausedAt.Valid {
		bs.ServicePausedSentAt = &pausedAt.Time
	}

	return &bs, nil
}

// Start records the beginning of a past-due episode. Calling it again for an
// already-recorded organization keeps the original start time.
func (r *BillingRepo) Start(ctx context.Context, orgID int64, now time.Time) error {
	const query = `
		INSERT INTO org_billing_status (org_id, past_due_started_at)
		VALUES (?, ?)
		ON CONFLICT(org_id) DO NOTHING
	`

	_, err := r.db.Writer.ExecContext(ctx, query, orgID, now.UTC())
	if err != nil {
		return fmt.Errorf("start billing episode for organization %d: %w", orgID, err)
	}

	return nil
}

func (r *BillingRepo) SetWarningSent(ctx context.Context, orgID int64, now time.Time) error {
	const query = `UPDATE org_billing_status SET last_warning_sent_at = ? WHERE org_id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, now.UTC(), orgID)
	if err != nil {
		return fmt.Errorf("set billing warning sent for organization %d: %w", orgID, err)
	}

	return nil
}

func (r *BillingRepo) SetPausedSent(ctx context.Context, orgID int64, now time.Time) error {
	const query = `UPDATE org_billing_status SET service_paused_sent_at = ? WHERE org_id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, now.UTC(), orgID)
	if err != nil {
		return fmt.Errorf("set service paused sent for organization %d: %w", orgID, err)
	}

	return nil
}

// Clear removes the past-due episode, it is called when the subscription
// becomes healthy again.
func (r *BillingRepo) Clear(ctx context.Context, orgID int64) error {
	const query = `DELETE FROM org_billing_status WHERE org_id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("clear billing status for organization %d: %w", orgID, err)
	}

	return nil
}
