package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda leituras de sala no Redis por um TTL curto; as escritas
// invalidam a chave da sala e a da listagem.
type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

const listKey = "rooms:list"

func keyRoom(roomID string) string { return "rooms:detail:" + roomID }

func (c *Cache) GetRoom(ctx context.Context, roomID string, dst any) (bool, error) {
	return c.get(ctx, keyRoom(roomID), dst)
}

func (c *Cache) SetRoom(ctx context.Context, roomID string, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyRoom(roomID), b, ttl).Err()
}

func (c *Cache) GetList(ctx context.Context, dst any) (bool, error) {
	return c.get(ctx, listKey, dst)
}

func (c *Cache) SetList(ctx context.Context, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, listKey, b, ttl).Err()
}

// Invalidate derruba as chaves da sala após uma escrita (stake/close/settle)
func (c *Cache) Invalidate(ctx context.Context, roomID string) error {
	return c.R.Del(ctx, keyRoom(roomID), listKey).Err()
}

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}
