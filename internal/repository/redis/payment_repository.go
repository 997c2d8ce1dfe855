package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tournament-tool-backend/internal/domain/payment"
	redisp "tournament-tool-backend/internal/platform/redis"
)

const (
	keyPrefixPayment = "payment:"

	fieldPaymentID     = "id"
	fieldPaymentUser   = "user_id"
	fieldPaymentTourn  = "tournament_id"
	fieldPaymentAmount = "amount"
	fieldPaymentStatus = "status"
	fieldPaymentCreate = "created_at"
	fieldPaymentDone   = "resolved_at"
)

type paymentRepository struct {
	client *redisp.Client
}

// NewPaymentRepository returns a redis-backed payment.Repository. Records
// are hashes keyed by (tournament, user) so resolving a payment is a
// single HSET on the status fields.
func NewPaymentRepository(client *redisp.Client) payment.Repository {
	return &paymentRepository{client: client}
}

func makePaymentKey(tournamentID string, userID int64) string {
	return fmt.Sprintf("%s%s:%d", keyPrefixPayment, tournamentID, userID)
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return r.client.HSet(ctx, makePaymentKey(p.TournamentID, p.UserID),
		fieldPaymentID, p.ID,
		fieldPaymentUser, p.UserID,
		fieldPaymentTourn, p.TournamentID,
		fieldPaymentAmount, p.Amount,
		fieldPaymentStatus, string(p.Status),
		fieldPaymentCreate, p.CreatedAt.Format(time.RFC3339Nano),
		fieldPaymentDone, "",
	).Err()
}

func (r *paymentRepository) Get(ctx context.Context, tournamentID string, userID int64) (*payment.Payment, error) {
	fields, err := r.client.HGetAll(ctx, makePaymentKey(tournamentID, userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, payment.ErrNotFound
	}

	p := &payment.Payment{
		ID:           fields[fieldPaymentID],
		TournamentID: fields[fieldPaymentTourn],
		Status:       payment.Status(fields[fieldPaymentStatus]),
	}
	p.UserID, _ = strconv.ParseInt(fields[fieldPaymentUser], 10, 64)
	p.Amount, _ = strconv.Atoi(fields[fieldPaymentAmount])
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields[fieldPaymentCreate])
	p.ResolvedAt, _ = time.Parse(time.RFC3339Nano, fields[fieldPaymentDone])
	return p, nil
}

func (r *paymentRepository) SetStatus(ctx context.Context, tournamentID string, userID int64, status payment.Status) error {
	return r.client.HSet(ctx, makePaymentKey(tournamentID, userID),
		fieldPaymentStatus, string(status),
		fieldPaymentDone, time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
}
