package lifecycle

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "tournament-tool-backend/internal/common/errors"
	"tournament-tool-backend/internal/common/logger"
	"tournament-tool-backend/internal/domain/payment"
	"tournament-tool-backend/internal/domain/tournament"
	"tournament-tool-backend/internal/domain/user"
)

// Service is the tournament lifecycle engine. It is the only component
// that mutates tournament and payment records; everything else consumes
// its read operations.
type Service struct {
	tournaments tournament.Repository
	payments    payment.Repository
	users       user.Repository
	loc         *time.Location
	now         func() time.Time
	log         zerolog.Logger

	mu         sync.Mutex
	lastIDUnix int64
}

// NewService wires the engine with its repositories. loc is the fixed
// reference timezone for schedule parsing and earnings boundaries.
func NewService(tournaments tournament.Repository, payments payment.Repository, users user.Repository, loc *time.Location) *Service {
	return &Service{
		tournaments: tournaments,
		payments:    payments,
		users:       users,
		loc:         loc,
		now:         time.Now,
		log:         logger.With("lifecycle"),
	}
}

// WithClock overrides the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Location returns the engine's reference timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// CreateInput carries the validated fields assembled by the creation flow.
type CreateInput struct {
	Name          string
	Type          tournament.Type
	Date          string
	Time          string
	EntryFee      int
	PrizePool     int
	Map           string
	CustomMessage string
	TDM           *tournament.TDMConfig
	CreatedBy     int64
}

// CreateTournament assigns a fresh identifier, persists the tournament as
// active with empty membership sets, and returns the identifier. The
// empty string return means failure, never a valid id.
func (s *Service) CreateTournament(ctx context.Context, in CreateInput) (string, error) {
	now := s.now().UTC()
	t := &tournament.Tournament{
		ID:            s.nextID(now),
		Name:          in.Name,
		Type:          in.Type,
		Date:          in.Date,
		Time:          in.Time,
		EntryFee:      in.EntryFee,
		PrizePool:     in.PrizePool,
		Map:           in.Map,
		CustomMessage: in.CustomMessage,
		TDM:           in.TDM,
		Status:        tournament.StatusActive,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     now,
	}

	if err := s.tournaments.Create(ctx, t); err != nil {
		s.log.Error().Err(err).Str("name", in.Name).Msg("tournament create failed")
		return "", apperrors.NewStorageError("tournament create", err)
	}

	s.log.Info().Str("tournament_id", t.ID).Str("type", string(t.Type)).Msg("tournament created")
	return t.ID, nil
}

// nextID derives a time-based identifier that never repeats even when two
// tournaments are created within the same second.
func (s *Service) nextID(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	unix := now.Unix()
	if unix <= s.lastIDUnix {
		unix = s.lastIDUnix + 1
	}
	s.lastIDUnix = unix
	return tournament.NewID(time.Unix(unix, 0))
}

// GetTournament returns the tournament or a not-found error.
func (s *Service) GetTournament(ctx context.Context, id string) (*tournament.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, id)
	if err == tournament.ErrNotFound {
		return nil, apperrors.NewTournamentNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("tournament get", err)
	}
	return t, nil
}

// ListActive returns all active tournaments in store-native order.
func (s *Service) ListActive(ctx context.Context) ([]tournament.Tournament, error) {
	list, err := s.tournaments.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("tournament list active", err)
	}
	return list, nil
}

// RegisterParticipant idempotently adds a user to the participants set.
// Adding an existing participant is a no-op, not an error. Registering
// for a missing or non-active tournament is a not-found error.
func (s *Service) RegisterParticipant(ctx context.Context, tournamentID string, userID int64) error {
	t, err := s.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Status != tournament.StatusActive {
		return apperrors.NewTournamentNotFoundError(tournamentID)
	}
	if err := s.tournaments.AddParticipant(ctx, tournamentID, userID); err != nil {
		return apperrors.NewStorageError("participant add", err)
	}
	s.log.Info().Str("tournament_id", tournamentID).Int64("user_id", userID).Msg("participant registered")
	return nil
}

// IsParticipant reports whether the user is registered for the tournament.
func (s *Service) IsParticipant(ctx context.Context, tournamentID string, userID int64) (bool, error) {
	ok, err := s.tournaments.IsParticipant(ctx, tournamentID, userID)
	if err != nil {
		return false, apperrors.NewStorageError("participant check", err)
	}
	return ok, nil
}

// RecordPaymentSignal creates the pending payment record for a player's
// "payment done" signal. Re-submitting overwrites the previous pending
// record for the same pair.
func (s *Service) RecordPaymentSignal(ctx context.Context, tournamentID string, userID int64, amount int) error {
	p := &payment.Payment{
		ID:           uuid.NewString(),
		UserID:       userID,
		TournamentID: tournamentID,
		Amount:       amount,
		Status:       payment.StatusPending,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return apperrors.NewStorageError("payment create", err)
	}
	return nil
}

// ConfirmPayment adds the user to the confirmed set and marks the payment
// record confirmed. Registration is a hard precondition: confirming a
// non-participant is rejected rather than silently creating a confirmed
// player outside the participants set.
//
// The two writes are not transactional. Membership goes first; when the
// payment-record write fails afterwards the membership change stands, the
// error is surfaced as a partial failure, and re-running the idempotent
// command is the retry path.
func (s *Service) ConfirmPayment(ctx context.Context, tournamentID string, userID int64) error {
	registered, err := s.IsParticipant(ctx, tournamentID, userID)
	if err != nil {
		return err
	}
	if !registered {
		return apperrors.New(apperrors.ErrCodeNotParticipant, "user is not registered for this tournament").
			WithContext("tournament_id", tournamentID)
	}

	if err := s.tournaments.ConfirmPlayer(ctx, tournamentID, userID); err != nil {
		return apperrors.NewStorageError("player confirm", err)
	}
	if err := s.payments.SetStatus(ctx, tournamentID, userID, payment.StatusConfirmed); err != nil {
		s.log.Error().Err(err).Str("tournament_id", tournamentID).Int64("user_id", userID).
			Msg("membership confirmed but payment record not updated")
		return apperrors.NewPartialFailure("player confirm", "payment record update", err)
	}

	s.log.Info().Str("tournament_id", tournamentID).Int64("user_id", userID).Msg("payment confirmed")
	return nil
}

// DeclineParticipant removes the user from both membership sets in one
// atomic operation and marks the payment record declined. Re-declining an
// absent user is a no-op. Write order and partial-failure handling follow
// ConfirmPayment.
func (s *Service) DeclineParticipant(ctx context.Context, tournamentID string, userID int64) error {
	if err := s.tournaments.RemovePlayer(ctx, tournamentID, userID); err != nil {
		return apperrors.NewStorageError("player remove", err)
	}
	if err := s.payments.SetStatus(ctx, tournamentID, userID, payment.StatusDeclined); err != nil {
		s.log.Error().Err(err).Str("tournament_id", tournamentID).Int64("user_id", userID).
			Msg("membership removed but payment record not updated")
		return apperrors.NewPartialFailure("player remove", "payment record update", err)
	}

	s.log.Info().Str("tournament_id", tournamentID).Int64("user_id", userID).Msg("participant declined")
	return nil
}

// CloseTournament transitions active -> completed and stamps the
// completion time. Closing a non-active tournament returns false and
// leaves state unchanged.
func (s *Service) CloseTournament(ctx context.Context, tournamentID string) (bool, error) {
	closed, err := s.tournaments.Close(ctx, tournamentID, s.now().UTC())
	if err != nil {
		return false, apperrors.NewStorageError("tournament close", err)
	}
	if closed {
		s.log.Info().Str("tournament_id", tournamentID).Msg("tournament completed")
	}
	return closed, nil
}

// DeleteTournament hard-deletes the tournament regardless of status and
// returns whether a record was actually removed.
func (s *Service) DeleteTournament(ctx context.Context, tournamentID string) (bool, error) {
	removed, err := s.tournaments.Delete(ctx, tournamentID)
	if err != nil {
		return false, apperrors.NewStorageError("tournament delete", err)
	}
	return removed, nil
}

// ClearActive deletes every active tournament and returns how many
// records were removed.
func (s *Service) ClearActive(ctx context.Context) (int, error) {
	active, err := s.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, t := range active {
		removed, err := s.DeleteTournament(ctx, t.ID)
		if err != nil {
			return deleted, err
		}
		if removed {
			deleted++
		}
	}
	return deleted, nil
}

// FindParticipantTournament returns the first active tournament the user
// is registered for. This is the explicit "most recent registration"
// convenience used by handle-based confirm/decline; callers that know the
// tournament id should pass it directly.
func (s *Service) FindParticipantTournament(ctx context.Context, userID int64) (*tournament.Tournament, error) {
	active, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for i := range active {
		registered, err := s.IsParticipant(ctx, active[i].ID, userID)
		if err != nil {
			return nil, err
		}
		if registered {
			return &active[i], nil
		}
	}
	return nil, apperrors.New(apperrors.ErrCodeNotParticipant, "no active registration found").
		WithContext("user_id", strconv.FormatInt(userID, 10))
}

// ConfirmedPlayers returns the confirmed member ids of a tournament.
func (s *Service) ConfirmedPlayers(ctx context.Context, tournamentID string) ([]int64, error) {
	ids, err := s.tournaments.ConfirmedPlayers(ctx, tournamentID)
	if err != nil {
		return nil, apperrors.NewStorageError("confirmed players", err)
	}
	return ids, nil
}

// MemberCounts returns the membership summary of a tournament.
func (s *Service) MemberCounts(ctx context.Context, tournamentID string) (tournament.Counts, error) {
	counts, err := s.tournaments.MemberCounts(ctx, tournamentID)
	if err != nil {
		return tournament.Counts{}, apperrors.NewStorageError("member counts", err)
	}
	return counts, nil
}

// ConfirmedProfiles resolves up to limit confirmed players to user
// profiles. Unresolvable ids are skipped.
func (s *Service) ConfirmedProfiles(ctx context.Context, tournamentID string, limit int) ([]user.User, error) {
	ids, err := s.ConfirmedPlayers(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	profiles := make([]user.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			continue
		}
		profiles = append(profiles, *u)
	}
	return profiles, nil
}
