package payment

import "time"

// Status is the resolution state of a payment record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDeclined  Status = "declined"
)

// Payment is the audit record of one entry-fee payment signal. It is not
// authoritative for tournament membership; membership lives on the
// tournament record and this record mirrors its resolution.
type Payment struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	TournamentID string    `json:"tournament_id"`
	Amount       int       `json:"amount"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	ResolvedAt   time.Time `json:"resolved_at,omitempty"`
}
