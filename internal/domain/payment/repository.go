package payment

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no payment record exists for the pair.
var ErrNotFound = errors.New("payment not found")

// Repository defines persistence for payment audit records. One record
// exists per (tournament, user) pair; Create overwrites a previous
// record for the same pair, which keeps re-submission idempotent.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, tournamentID string, userID int64) (*Payment, error)
	// SetStatus resolves the record with a single atomic field update.
	SetStatus(ctx context.Context, tournamentID string, userID int64, status Status) error
}
