package linkstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "coplay:link:"

// RedisStore 는 사용자당 문자열 키 하나를 둔다. 만료 없음.
type RedisStore struct{ rdb *redis.Client }

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

// DialRedis parses a redis:// URL and pings the server.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis link store")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) key(userID string) string { return keyPrefix + strings.TrimSpace(userID) }

func (s *RedisStore) Get(ctx context.Context, userID string) (domain.AccountID, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrInvalidUser
	}
	raw, err := s.rdb.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		return 0, ErrNotLinked
	}
	if err != nil {
		return 0, fmt.Errorf("redis get link: %w", err)
	}
	id, ok := domain.ParseAccountID(raw)
	if !ok {
		return 0, fmt.Errorf("%w: value %q for %s", ErrCorruptLink, raw, userID)
	}
	return id, nil
}

func (s *RedisStore) Set(ctx context.Context, userID string, id domain.AccountID) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	if err := s.rdb.Set(ctx, s.key(userID), strconv.FormatUint(uint64(id), 10), 0).Err(); err != nil {
		return fmt.Errorf("redis set link: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
