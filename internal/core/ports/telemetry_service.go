package ports

import (
	"context"
	"time"

	"github.com/logistream/fleet-telemetry/internal/core/domain"
)

// IngestTelemetryInput is the DTO passed from the transport layer to the
// ingestion service. Timestamp is an optional RFC 3339 string; empty means
// "use the server's current time".
type IngestTelemetryInput struct {
	DeviceID    string
	TruckID     string
	Latitude    float64
	Longitude   float64
	Temperature float64
	Humidity    float64
	Timestamp   string
	Speed       *float64 // optional
	Altitude    *float64 // optional
}

// TelemetryAck echoes the identifying fields of an accepted reading back to
// the caller, together with its computed alert flag.
type TelemetryAck struct {
	DeviceID   string
	TruckID    string
	Timestamp  time.Time
	NeedsAlert bool
}

// IngestResult is the acknowledgment for a single accepted reading.
type IngestResult struct {
	Message string
	Ack     TelemetryAck
}

// BatchIngestResult summarises a batch run. The call succeeds even when some
// items failed validation; Failed counts them.
type BatchIngestResult struct {
	Message  string
	Ingested int
	Failed   int
}

// TelemetryService is the ingestion orchestrator plus the read paths served
// to query consumers.
type TelemetryService interface {
	Ingest(ctx context.Context, in IngestTelemetryInput) (*IngestResult, error)
	IngestBatch(ctx context.Context, ins []IngestTelemetryInput) (*BatchIngestResult, error)

	FindByDeviceID(ctx context.Context, deviceID string, limit int) ([]domain.Telemetry, error)
	FindByTruckID(ctx context.Context, truckID string, limit int) ([]domain.Telemetry, error)
	FindByTimeRange(ctx context.Context, from, to time.Time) ([]domain.Telemetry, error)
	LatestByDeviceID(ctx context.Context, deviceID string) (domain.Telemetry, error)
}
