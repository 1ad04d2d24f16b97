package slot

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type RedisSlot struct {
	RDB *redis.Client
	key string
}

func NewRedisClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

func NewRedisSlot(rdb *redis.Client, key string) *RedisSlot {
	return &RedisSlot{RDB: rdb, key: key}
}

func (s *RedisSlot) Load(ctx context.Context) ([]byte, error) {
	b, err := s.RDB.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("redis get "+s.key, err)
	}
	return b, nil
}

// Save 不设置 TTL：槽位是持久数据而不是缓存
func (s *RedisSlot) Save(ctx context.Context, b []byte) error {
	if err := s.RDB.Set(ctx, s.key, b, 0).Err(); err != nil {
		return persistErr("redis set "+s.key, err)
	}
	return nil
}
