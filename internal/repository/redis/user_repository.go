package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tournament-tool-backend/internal/domain/user"
	redisp "tournament-tool-backend/internal/platform/redis"
)

const (
	keyPrefixUser     = "user:"
	keyUsersByName    = "users:by_username"
	keyUsersActivity  = "users:by_activity"
	fieldUserID       = "id"
	fieldUsername     = "username"
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldCreatedAt    = "created_at"
	fieldLastActivity = "last_activity"
)

type userRepository struct {
	client *redisp.Client
}

// NewUserRepository returns a redis-backed user.Repository.
func NewUserRepository(client *redisp.Client) user.Repository {
	return &userRepository{client: client}
}

func makeUserKey(id int64) string {
	return keyPrefixUser + strconv.FormatInt(id, 10)
}

func (r *userRepository) Upsert(ctx context.Context, u *user.User) error {
	if u.LastActivity.IsZero() {
		u.LastActivity = time.Now().UTC()
	}
	key := makeUserKey(u.ID)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key,
		fieldUserID, u.ID,
		fieldUsername, u.Username,
		fieldFirstName, u.FirstName,
		fieldLastName, u.LastName,
		fieldLastActivity, u.LastActivity.Format(time.RFC3339Nano),
	)
	// Keep the original creation time on refresh.
	pipe.HSetNX(ctx, key, fieldCreatedAt, u.LastActivity.Format(time.RFC3339Nano))
	if u.Username != "" {
		pipe.HSet(ctx, keyUsersByName, u.Username, u.ID)
	}
	pipe.ZAdd(ctx, keyUsersActivity, redis.Z{
		Score:  float64(u.LastActivity.Unix()),
		Member: u.ID,
	})
	_, err := pipe.Exec(ctx)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	fields, err := r.client.HGetAll(ctx, makeUserKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, user.ErrNotFound
	}
	return userFromFields(fields), nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	raw, err := r.client.HGet(ctx, keyUsersByName, username).Result()
	if err == redis.Nil {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) ListActiveSince(ctx context.Context, cutoff time.Time) ([]user.User, error) {
	ids, err := r.client.ZRangeByScore(ctx, keyUsersActivity, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, raw := range ids {
		cmds[i] = pipe.HGetAll(ctx, keyPrefixUser+raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	users := make([]user.User, 0, len(ids))
	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		users = append(users, *userFromFields(fields))
	}
	return users, nil
}

func userFromFields(fields map[string]string) *user.User {
	u := &user.User{
		Username:  fields[fieldUsername],
		FirstName: fields[fieldFirstName],
		LastName:  fields[fieldLastName],
	}
	u.ID, _ = strconv.ParseInt(fields[fieldUserID], 10, 64)
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	u.LastActivity, _ = time.Parse(time.RFC3339Nano, fields[fieldLastActivity])
	return u
}
