package state

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisUserSet   = "botblocks:sessions:users"
	redisKeyPrefix = "botblocks:sessions:"
	fieldCount     = "message_count"
	fieldActivity  = "last_activity"
	varsKeySuffix  = ":vars"
)

// RedisStore keeps sessions in redis so multiple bot processes share one
// session space. Counters use atomic hash increments, which gives the
// per-user serialization the engine requires without client-side locks.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(userID string) string {
	return redisKeyPrefix + userID
}

func (s *RedisStore) Touch(ctx context.Context, userID string) (Session, error) {
	key := sessionKey(userID)
	now := time.Now()

	pipe := s.client.TxPipeline()
	count := pipe.HIncrBy(ctx, key, fieldCount, 1)
	pipe.HSet(ctx, key, fieldActivity, now.UnixMilli())
	pipe.SAdd(ctx, redisUserSet, userID)
	vars := pipe.HGetAll(ctx, key+varsKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return Session{}, fmt.Errorf("touching session %s: %w", userID, err)
	}

	session := Session{
		UserID:       userID,
		MessageCount: count.Val(),
		LastActivity: now,
	}

	if len(vars.Val()) > 0 {
		session.Variables = vars.Val()
	}

	return session, nil
}

func (s *RedisStore) Get(ctx context.Context, userID string) (Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return Session{}, fmt.Errorf("fetching session %s: %w", userID, err)
	}

	if len(fields) == 0 {
		return Session{}, ErrSessionNotFound
	}

	session := Session{UserID: userID}

	if raw, ok := fields[fieldCount]; ok {
		session.MessageCount, _ = strconv.ParseInt(raw, 10, 64)
	}

	if raw, ok := fields[fieldActivity]; ok {
		millis, _ := strconv.ParseInt(raw, 10, 64)
		session.LastActivity = time.UnixMilli(millis)
	}

	vars, err := s.client.HGetAll(ctx, sessionKey(userID)+varsKeySuffix).Result()
	if err != nil {
		return Session{}, fmt.Errorf("fetching session variables %s: %w", userID, err)
	}

	if len(vars) > 0 {
		session.Variables = vars
	}

	return session, nil
}

func (s *RedisStore) SetVariable(ctx context.Context, userID, name, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, sessionKey(userID)+varsKeySuffix, name, value)
	pipe.SAdd(ctx, redisUserSet, userID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("setting variable %s for session %s: %w", name, userID, err)
	}

	return nil
}

func (s *RedisStore) UserCount(ctx context.Context) (int64, error) {
	count, err := s.client.SCard(ctx, redisUserSet).Result()
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}

	return count, nil
}

func (s *RedisStore) PruneIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	userIDs, err := s.client.SMembers(ctx, redisUserSet).Result()
	if err != nil {
		return 0, fmt.Errorf("listing sessions: %w", err)
	}

	cutoff := time.Now().Add(-idleFor).UnixMilli()
	pruned := 0

	for _, userID := range userIDs {
		raw, err := s.client.HGet(ctx, sessionKey(userID), fieldActivity).Result()
		if err == redis.Nil {
			raw = "0"
		} else if err != nil {
			return pruned, fmt.Errorf("inspecting session %s: %w", userID, err)
		}

		millis, _ := strconv.ParseInt(raw, 10, 64)
		if millis >= cutoff {
			continue
		}

		pipe := s.client.TxPipeline()
		pipe.Del(ctx, sessionKey(userID), sessionKey(userID)+varsKeySuffix)
		pipe.SRem(ctx, redisUserSet, userID)

		if _, err := pipe.Exec(ctx); err != nil {
			return pruned, fmt.Errorf("pruning session %s: %w", userID, err)
		}

		pruned++
	}

	return pruned, nil
}
