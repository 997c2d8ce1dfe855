package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tournament-tool-backend/internal/domain/tournament"
	redisp "tournament-tool-backend/internal/platform/redis"
)

const (
	keyPrefixTournament     = "tournament:"
	keyActiveTournaments    = "tournaments:active"
	keyCompletedTournaments = "tournaments:completed"
	keyTournamentsByCreated = "tournaments:by_created"

	suffixParticipants = ":participants"
	suffixConfirmed    = ":confirmed"
)

type tournamentRepository struct {
	client *redisp.Client
}

// NewTournamentRepository returns a redis-backed tournament.Repository.
// Records are JSON values; membership lives in native sets so that every
// mutation is a single atomic set operation.
func NewTournamentRepository(client *redisp.Client) tournament.Repository {
	return &tournamentRepository{client: client}
}

func makeTournamentKey(id string) string {
	return keyPrefixTournament + id
}

func participantsKey(id string) string {
	return makeTournamentKey(id) + suffixParticipants
}

func confirmedKey(id string) string {
	return makeTournamentKey(id) + suffixConfirmed
}

func (r *tournamentRepository) Create(ctx context.Context, t *tournament.Tournament) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeTournamentKey(t.ID), data, 0)
	pipe.SAdd(ctx, keyActiveTournaments, t.ID)
	pipe.ZAdd(ctx, keyTournamentsByCreated, redis.Z{
		Score:  float64(t.CreatedAt.Unix()),
		Member: t.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *tournamentRepository) GetByID(ctx context.Context, id string) (*tournament.Tournament, error) {
	data, err := r.client.Get(ctx, makeTournamentKey(id)).Bytes()
	if err == redis.Nil {
		return nil, tournament.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var t tournament.Tournament
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tournamentRepository) ListActive(ctx context.Context) ([]tournament.Tournament, error) {
	ids, err := r.client.SMembers(ctx, keyActiveTournaments).Result()
	if err != nil {
		return nil, err
	}
	return r.loadMany(ctx, ids)
}

func (r *tournamentRepository) ListCreatedSince(ctx context.Context, cutoff time.Time) ([]tournament.Tournament, error) {
	ids, err := r.client.ZRangeByScore(ctx, keyTournamentsByCreated, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	return r.loadMany(ctx, ids)
}

func (r *tournamentRepository) loadMany(ctx context.Context, ids []string) ([]tournament.Tournament, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, makeTournamentKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	out := make([]tournament.Tournament, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			// Index entry without a record; skip.
			continue
		}
		var t tournament.Tournament
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *tournamentRepository) AddParticipant(ctx context.Context, id string, userID int64) error {
	return r.client.SAdd(ctx, participantsKey(id), userID).Err()
}

func (r *tournamentRepository) ConfirmPlayer(ctx context.Context, id string, userID int64) error {
	return r.client.SAdd(ctx, confirmedKey(id), userID).Err()
}

func (r *tournamentRepository) RemovePlayer(ctx context.Context, id string, userID int64) error {
	// MULTI/EXEC so both removals land together.
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, participantsKey(id), userID)
		pipe.SRem(ctx, confirmedKey(id), userID)
		return nil
	})
	return err
}

func (r *tournamentRepository) IsParticipant(ctx context.Context, id string, userID int64) (bool, error) {
	return r.client.SIsMember(ctx, participantsKey(id), userID).Result()
}

func (r *tournamentRepository) Participants(ctx context.Context, id string) ([]int64, error) {
	return r.members(ctx, participantsKey(id))
}

func (r *tournamentRepository) ConfirmedPlayers(ctx context.Context, id string) ([]int64, error) {
	return r.members(ctx, confirmedKey(id))
}

func (r *tournamentRepository) members(ctx context.Context, key string) ([]int64, error) {
	raw, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (r *tournamentRepository) MemberCounts(ctx context.Context, id string) (tournament.Counts, error) {
	pipe := r.client.Pipeline()
	participants := pipe.SCard(ctx, participantsKey(id))
	confirmed := pipe.SCard(ctx, confirmedKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return tournament.Counts{}, err
	}
	return tournament.Counts{
		Participants: int(participants.Val()),
		Confirmed:    int(confirmed.Val()),
	}, nil
}

func (r *tournamentRepository) Close(ctx context.Context, id string, at time.Time) (bool, error) {
	// SMOVE is the transition guard: it succeeds exactly once, only while
	// the id is still in the active set.
	moved, err := r.client.SMove(ctx, keyActiveTournaments, keyCompletedTournaments, id).Result()
	if err != nil {
		return false, err
	}
	if !moved {
		return false, nil
	}

	t, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	t.Status = tournament.StatusCompleted
	t.CompletedAt = at

	data, err := json.Marshal(t)
	if err != nil {
		return false, err
	}
	if err := r.client.Set(ctx, makeTournamentKey(id), data, 0).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *tournamentRepository) Delete(ctx context.Context, id string) (bool, error) {
	pipe := r.client.Pipeline()
	deleted := pipe.Del(ctx, makeTournamentKey(id))
	pipe.Del(ctx, participantsKey(id), confirmedKey(id))
	pipe.SRem(ctx, keyActiveTournaments, id)
	pipe.SRem(ctx, keyCompletedTournaments, id)
	pipe.ZRem(ctx, keyTournamentsByCreated, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return deleted.Val() > 0, nil
}
