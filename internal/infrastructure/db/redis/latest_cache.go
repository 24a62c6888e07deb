package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/logistream/fleet-telemetry/internal/core/domain"
)

const latestTTL = 24 * time.Hour

// LatestCache keeps the most recent reading per device in Redis.
// Key format: telemetry:latest:<device_id>
type LatestCache struct {
	client *redis.Client
}

// NewLatestCache creates a LatestCache wrapping the given Redis client.
func NewLatestCache(client *redis.Client) *LatestCache {
	return &LatestCache{client: client}
}

// SetLatest stores t as the device's latest reading, overwriting any previous
// value. The entry expires after latestTTL so idle devices age out.
func (c *LatestCache) SetLatest(ctx context.Context, t domain.Telemetry) error {
	payload, err := json.Marshal(t.Transport())
	if err != nil {
		return fmt.Errorf("marshal latest reading: %w", err)
	}
	return c.client.Set(ctx, c.key(t.DeviceID), payload, latestTTL).Err()
}

// GetLatest returns the cached reading for the device and whether one was
// present.
func (c *LatestCache) GetLatest(ctx context.Context, deviceID string) (domain.Telemetry, bool, error) {
	raw, err := c.client.Get(ctx, c.key(deviceID)).Bytes()
	if err == redis.Nil {
		return domain.Telemetry{}, false, nil
	}
	if err != nil {
		return domain.Telemetry{}, false, fmt.Errorf("latest reading lookup: %w", err)
	}

	var record domain.TransportRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.Telemetry{}, false, fmt.Errorf("unmarshal latest reading: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, record.Timestamp)
	if err != nil {
		return domain.Telemetry{}, false, fmt.Errorf("parse cached timestamp: %w", err)
	}

	t, err := domain.NewTelemetry(domain.TelemetryInput{
		DeviceID:    record.DeviceID,
		TruckID:     record.TruckID,
		Latitude:    record.Latitude,
		Longitude:   record.Longitude,
		Temperature: record.Temperature,
		Humidity:    record.Humidity,
		Timestamp:   ts,
		Speed:       record.Speed,
		Altitude:    record.Altitude,
	})
	if err != nil {
		return domain.Telemetry{}, false, fmt.Errorf("rehydrate cached reading: %w", err)
	}
	return t, true, nil
}

func (c *LatestCache) key(deviceID string) string {
	return fmt.Sprintf("telemetry:latest:%s", deviceID)
}
