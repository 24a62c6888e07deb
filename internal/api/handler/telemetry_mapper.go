package handler

import (
	"time"

	"github.com/logistream/fleet-telemetry/internal/core/domain"
	"github.com/logistream/fleet-telemetry/internal/core/ports"
)

// toIngestInput maps the HTTP request to the service DTO. Schema validation
// has already guaranteed the required pointers are non-nil.
func toIngestInput(r telemetryRequest) ports.IngestTelemetryInput {
	return ports.IngestTelemetryInput{
		DeviceID:    r.DeviceID,
		TruckID:     r.TruckID,
		Latitude:    *r.Latitude,
		Longitude:   *r.Longitude,
		Temperature: *r.Temperature,
		Humidity:    *r.Humidity,
		Timestamp:   r.Timestamp,
		Speed:       r.Speed,
		Altitude:    r.Altitude,
	}
}

func toAck(a ports.TelemetryAck) telemetryAck {
	return telemetryAck{
		DeviceID:   a.DeviceID,
		TruckID:    a.TruckID,
		Timestamp:  a.Timestamp.UTC().Format(time.RFC3339Nano),
		NeedsAlert: a.NeedsAlert,
	}
}

// toTransportList renders readings in their canonical wire form for query
// responses; it returns an empty slice rather than null JSON.
func toTransportList(ts []domain.Telemetry) []domain.TransportRecord {
	out := make([]domain.TransportRecord, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Transport())
	}
	return out
}
