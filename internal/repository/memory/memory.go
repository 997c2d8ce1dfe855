// Package memory holds in-memory implementations of the domain
// repositories. They back the engine test suites and mirror the atomic
// set semantics of the redis adapter.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tournament-tool-backend/internal/domain/payment"
	"tournament-tool-backend/internal/domain/tournament"
	"tournament-tool-backend/internal/domain/user"
)

type TournamentRepo struct {
	mu           sync.Mutex
	records      map[string]tournament.Tournament
	participants map[string]map[int64]struct{}
	confirmed    map[string]map[int64]struct{}

	// CreateErr, when set, fails the next Create call.
	CreateErr error
}

func NewTournamentRepo() *TournamentRepo {
	return &TournamentRepo{
		records:      make(map[string]tournament.Tournament),
		participants: make(map[string]map[int64]struct{}),
		confirmed:    make(map[string]map[int64]struct{}),
	}
}

func (r *TournamentRepo) Create(_ context.Context, t *tournament.Tournament) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[t.ID] = *t
	r.participants[t.ID] = make(map[int64]struct{})
	r.confirmed[t.ID] = make(map[int64]struct{})
	return nil
}

func (r *TournamentRepo) GetByID(_ context.Context, id string) (*tournament.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.records[id]
	if !ok {
		return nil, tournament.ErrNotFound
	}
	return &t, nil
}

func (r *TournamentRepo) ListActive(_ context.Context) ([]tournament.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tournament.Tournament
	for _, t := range r.records {
		if t.Status == tournament.StatusActive {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TournamentRepo) ListCreatedSince(_ context.Context, cutoff time.Time) ([]tournament.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tournament.Tournament
	for _, t := range r.records {
		if !t.CreatedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TournamentRepo) AddParticipant(_ context.Context, id string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.participants[id]; ok {
		set[userID] = struct{}{}
	}
	return nil
}

func (r *TournamentRepo) ConfirmPlayer(_ context.Context, id string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.confirmed[id]; ok {
		set[userID] = struct{}{}
	}
	return nil
}

func (r *TournamentRepo) RemovePlayer(_ context.Context, id string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants[id], userID)
	delete(r.confirmed[id], userID)
	return nil
}

func (r *TournamentRepo) IsParticipant(_ context.Context, id string, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.participants[id][userID]
	return ok, nil
}

func (r *TournamentRepo) Participants(_ context.Context, id string) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return members(r.participants[id]), nil
}

func (r *TournamentRepo) ConfirmedPlayers(_ context.Context, id string) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return members(r.confirmed[id]), nil
}

func (r *TournamentRepo) MemberCounts(_ context.Context, id string) (tournament.Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return tournament.Counts{
		Participants: len(r.participants[id]),
		Confirmed:    len(r.confirmed[id]),
	}, nil
}

func (r *TournamentRepo) Close(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.records[id]
	if !ok || t.Status != tournament.StatusActive {
		return false, nil
	}
	t.Status = tournament.StatusCompleted
	t.CompletedAt = at
	r.records[id] = t
	return true, nil
}

func (r *TournamentRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[id]
	delete(r.records, id)
	delete(r.participants, id)
	delete(r.confirmed, id)
	return ok, nil
}

func members(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type paymentKey struct {
	tournamentID string
	userID       int64
}

type PaymentRepo struct {
	mu      sync.Mutex
	records map[paymentKey]payment.Payment

	// SetStatusErr, when set, fails the next SetStatus call.
	SetStatusErr error
}

func NewPaymentRepo() *PaymentRepo {
	return &PaymentRepo{records: make(map[paymentKey]payment.Payment)}
}

func (r *PaymentRepo) Create(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[paymentKey{p.TournamentID, p.UserID}] = *p
	return nil
}

func (r *PaymentRepo) Get(_ context.Context, tournamentID string, userID int64) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[paymentKey{tournamentID, userID}]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return &p, nil
}

func (r *PaymentRepo) SetStatus(_ context.Context, tournamentID string, userID int64, status payment.Status) error {
	if r.SetStatusErr != nil {
		return r.SetStatusErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[paymentKey{tournamentID, userID}]
	if !ok {
		p = payment.Payment{TournamentID: tournamentID, UserID: userID}
	}
	p.Status = status
	p.ResolvedAt = time.Now().UTC()
	r.records[paymentKey{tournamentID, userID}] = p
	return nil
}

type UserRepo struct {
	mu      sync.Mutex
	records map[int64]user.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{records: make(map[int64]user.User)}
}

func (r *UserRepo) Upsert(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.LastActivity.IsZero() {
		u.LastActivity = time.Now().UTC()
	}
	existing, ok := r.records[u.ID]
	if ok {
		u.CreatedAt = existing.CreatedAt
	} else if u.CreatedAt.IsZero() {
		u.CreatedAt = u.LastActivity
	}
	r.records[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.records[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.records {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *UserRepo) ListActiveSince(_ context.Context, cutoff time.Time) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, u := range r.records {
		if !u.LastActivity.Before(cutoff) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
