package statuscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"airline_sim/internal/checks"
	"airline_sim/internal/clock"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 10 * time.Minute

// RedisClientInterface defines the Redis operations used by the cache
type RedisClientInterface interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// AircraftStatus is the published view of one aircraft's check tiers
type AircraftStatus struct {
	WorldID     string               `json:"worldId"`
	AircraftID  string               `json:"aircraftId"`
	EvaluatedAt time.Time            `json:"evaluatedAt"`
	Airworthy   bool                 `json:"airworthy"`
	Checks      []checks.CheckStatus `json:"checks"`
}

// ClockState is the published world clock reference
type ClockState struct {
	WorldID            string       `json:"worldId"`
	ReferenceTime      time.Time    `json:"referenceTime"`
	ReferenceTimestamp time.Time    `json:"referenceTimestamp"`
	AccelerationFactor float64      `json:"accelerationFactor"`
	Source             clock.Source `json:"source"`
	Sequence           uint64       `json:"sequence"`
}

// Cache publishes derived statuses to Redis so other services can read them
// without re-evaluating. Entries expire so a stopped daemon leaves no stale data.
type Cache struct {
	client  RedisClientInterface
	worldID string
	ttl     time.Duration
}

// New connects to Redis at addr
func New(addr, worldID string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, worldID, ttl), nil
}

// NewWithClient wraps an existing client (useful for testing)
func NewWithClient(client RedisClientInterface, worldID string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, worldID: worldID, ttl: ttl}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) statusKey(aircraftID string) string {
	return fmt.Sprintf("status:%s:%s", c.worldID, aircraftID)
}

func (c *Cache) clockKey() string {
	return fmt.Sprintf("clock:%s", c.worldID)
}

// PublishStatuses stores one entry per aircraft
func (c *Cache) PublishStatuses(ctx context.Context, evaluatedAt time.Time, fleet map[string][]checks.CheckStatus) error {
	for id, statuses := range fleet {
		entry := AircraftStatus{
			WorldID:     c.worldID,
			AircraftID:  id,
			EvaluatedAt: evaluatedAt,
			Airworthy:   Airworthy(statuses),
			Checks:      statuses,
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal status for %s: %w", id, err)
		}
		if err := c.client.Set(ctx, c.statusKey(id), data, c.ttl).Err(); err != nil {
			return fmt.Errorf("failed to store status for %s: %w", id, err)
		}
	}
	return nil
}

// PublishClock stores the current clock reference
func (c *Cache) PublishClock(ctx context.Context, wc clock.WorldClock) error {
	data, err := json.Marshal(ClockState{
		WorldID:            c.worldID,
		ReferenceTime:      wc.ReferenceTime,
		ReferenceTimestamp: wc.ReferenceTimestamp,
		AccelerationFactor: wc.AccelerationFactor,
		Source:             wc.Source,
		Sequence:           wc.Sequence,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal clock: %w", err)
	}
	return c.client.Set(ctx, c.clockKey(), data, c.ttl).Err()
}

// GetStatus returns the published entry for aircraftID, or nil if none is cached
func (c *Cache) GetStatus(ctx context.Context, aircraftID string) (*AircraftStatus, error) {
	var entry AircraftStatus
	found, err := c.getData(ctx, c.statusKey(aircraftID), &entry, "status")
	if err != nil || !found {
		return nil, err
	}
	return &entry, nil
}

// GetClock returns the published clock, or nil if none is cached
func (c *Cache) GetClock(ctx context.Context) (*ClockState, error) {
	var state ClockState
	found, err := c.getData(ctx, c.clockKey(), &state, "clock")
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

// DeleteStatus removes the entry for aircraftID
func (c *Cache) DeleteStatus(ctx context.Context, aircraftID string) error {
	return c.client.Del(ctx, c.statusKey(aircraftID)).Err()
}

func (c *Cache) getData(ctx context.Context, key string, target interface{}, dataType string) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s data: %w", dataType, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s data: %w", dataType, err)
	}
	return true, nil
}

// Airworthy reports whether every tier allows operation
func Airworthy(statuses []checks.CheckStatus) bool {
	if len(statuses) == 0 {
		return false
	}
	for _, st := range statuses {
		if !st.Status.Airworthy() {
			return false
		}
	}
	return true
}
