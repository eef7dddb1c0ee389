package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PrefsRepo keeps per-user preferences and document favorites in Redis.
// Preferences are a hash, favorites a set, both keyed by user ID. This
// state is a cache of UI choices, not a record, so losing it is fine.
type PrefsRepo struct {
	redis *redis.Client
}

func NewPrefsRepo(redisClient *redis.Client) *PrefsRepo {
	return &PrefsRepo{redis: redisClient}
}

func (r *PrefsRepo) GetPreferences(ctx context.Context, userID uuid.UUID) (map[string]string, error) {
	prefs, err := r.redis.HGetAll(ctx, "prefs:"+userID.String()).Result()
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

func (r *PrefsRepo) SetPreferences(ctx context.Context, userID uuid.UUID, prefs map[string]string) error {
	if len(prefs) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(prefs)*2)
	for k, v := range prefs {
		args = append(args, k, v)
	}
	return r.redis.HSet(ctx, "prefs:"+userID.String(), args...).Err()
}

func (r *PrefsRepo) ListFavorites(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	members, err := r.redis.SMembers(ctx, "favorites:"+userID.String()).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *PrefsRepo) AddFavorite(ctx context.Context, userID, documentID uuid.UUID) error {
	return r.redis.SAdd(ctx, "favorites:"+userID.String(), documentID.String()).Err()
}

func (r *PrefsRepo) RemoveFavorite(ctx context.Context, userID, documentID uuid.UUID) error {
	return r.redis.SRem(ctx, "favorites:"+userID.String(), documentID.String()).Err()
}

// MarkStreakReminded records that a streak reminder went out, with a TTL
// so the user is nudged at most once per day.
func (r *PrefsRepo) MarkStreakReminded(ctx context.Context, userID uuid.UUID) (bool, error) {
	return r.redis.SetNX(ctx, "streak_reminded:"+userID.String(), "1", 20*time.Hour).Result()
}
