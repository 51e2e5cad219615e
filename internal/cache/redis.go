package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/roombooking/config"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisCache struct {
	client   *redis.Client
	roomsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, roomsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		roomsTTL: roomsTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetRooms returns nil, nil on a cache miss.
func (c *RedisCache) GetRooms(ctx context.Context, hotelID string) ([]domain.Room, error) {
	data, err := c.client.Get(ctx, roomsKey(hotelID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var rooms []domain.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *RedisCache) SetRooms(ctx context.Context, hotelID string, rooms []domain.Room) error {
	payload, err := json.Marshal(rooms)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, roomsKey(hotelID), payload, c.roomsTTL).Err()
}

// InvalidateRooms drops the cached lists of the given hotels and the catalog-wide list.
func (c *RedisCache) InvalidateRooms(ctx context.Context, hotelIDs ...string) error {
	keys := []string{roomsKey("")}
	for _, id := range hotelIDs {
		if id != "" {
			keys = append(keys, roomsKey(id))
		}
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) AcquireRoomLock(ctx context.Context, roomID, token string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, roomLockKey(roomID), token, ttl).Result()
}

func (c *RedisCache) ReleaseRoomLock(ctx context.Context, roomID, token string) error {
	return releaseScript.Run(ctx, c.client, []string{roomLockKey(roomID)}, token).Err()
}

func roomsKey(hotelID string) string {
	if hotelID == "" {
		return "cache:rooms:all"
	}
	return fmt.Sprintf("cache:rooms:hotel:%s", hotelID)
}

func roomLockKey(roomID string) string {
	return fmt.Sprintf("lock:room:%s", roomID)
}
