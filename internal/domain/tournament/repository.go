package tournament

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no tournament record exists.
var ErrNotFound = errors.New("tournament not found")

// Repository defines persistence for the Tournament aggregate and its
// membership sets. Membership mutations are single atomic set operations
// so that concurrent calls converge regardless of interleaving; there is
// no read-modify-write of member arrays anywhere in the store.
type Repository interface {
	Create(ctx context.Context, t *Tournament) error
	GetByID(ctx context.Context, id string) (*Tournament, error)
	// ListActive returns all active tournaments in store-native order.
	ListActive(ctx context.Context) ([]Tournament, error)
	// ListCreatedSince returns active and completed tournaments whose
	// creation time is at or after cutoff.
	ListCreatedSince(ctx context.Context, cutoff time.Time) ([]Tournament, error)

	// AddParticipant adds userID to the participants set. Idempotent.
	AddParticipant(ctx context.Context, id string, userID int64) error
	// ConfirmPlayer adds userID to the confirmed-players set. Idempotent.
	ConfirmPlayer(ctx context.Context, id string, userID int64) error
	// RemovePlayer removes userID from both membership sets atomically.
	RemovePlayer(ctx context.Context, id string, userID int64) error

	IsParticipant(ctx context.Context, id string, userID int64) (bool, error)
	Participants(ctx context.Context, id string) ([]int64, error)
	ConfirmedPlayers(ctx context.Context, id string) ([]int64, error)
	MemberCounts(ctx context.Context, id string) (Counts, error)

	// Close transitions the tournament from active to completed and stamps
	// the completion time. Returns false without error when the tournament
	// is not active.
	Close(ctx context.Context, id string, at time.Time) (bool, error)
	// Delete hard-deletes the tournament and its membership sets from any
	// state. Returns whether a record was actually removed.
	Delete(ctx context.Context, id string) (bool, error)
}
