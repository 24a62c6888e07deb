package ports

import (
	"context"
	"time"

	"github.com/logistream/fleet-telemetry/internal/core/domain"
)

// TelemetryRepository is the best-effort persisted index of readings.
// The ingest path only ever calls Save, and never on the request path; the
// read methods serve the query endpoints.
type TelemetryRepository interface {
	// Save persists a reading and returns it as stored.
	Save(ctx context.Context, t domain.Telemetry) (domain.Telemetry, error)

	// FindByDeviceID returns up to limit readings for a device, newest first.
	FindByDeviceID(ctx context.Context, deviceID string, limit int) ([]domain.Telemetry, error)

	// FindByTruckID returns up to limit readings for a truck, newest first.
	FindByTruckID(ctx context.Context, truckID string, limit int) ([]domain.Telemetry, error)

	// FindByTimeRange returns readings with from <= timestamp <= to, newest first.
	FindByTimeRange(ctx context.Context, from, to time.Time) ([]domain.Telemetry, error)

	// LatestByDeviceID returns the most recent reading for a device, or
	// domain.ErrTelemetryNotFound when the device has none.
	LatestByDeviceID(ctx context.Context, deviceID string) (domain.Telemetry, error)
}
