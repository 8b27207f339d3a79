package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"side-stacker-server/internal/domain"
)

// Connect dials Redis and returns nil when it is unreachable; callers run
// without the snapshot cache in that case rather than failing startup.
func Connect(addr, password string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[REDIS] Warning: could not connect to Redis: %v. Running without snapshot cache.", err)
		client.Close()
		return nil
	}

	log.Println("[REDIS] Connected successfully")
	return client
}

const snapshotTTL = 24 * time.Hour

// SnapshotCache stores the latest serialized snapshot per game id.
type SnapshotCache struct {
	client *redis.Client
}

func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	return &SnapshotCache{client: client}
}

func snapshotKey(gameID string) string {
	return "game:snapshot:" + gameID
}

func (c *SnapshotCache) SetSnapshot(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(snap.ID), data, snapshotTTL).Err()
}

func (c *SnapshotCache) GetSnapshot(ctx context.Context, gameID string) (domain.Snapshot, bool) {
	data, err := c.client.Get(ctx, snapshotKey(gameID)).Bytes()
	if err != nil {
		return domain.Snapshot{}, false
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, false
	}
	return snap, true
}
