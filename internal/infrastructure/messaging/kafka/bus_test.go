package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/logistream/fleet-telemetry/internal/core/domain"
)

func testReading(t *testing.T) domain.Telemetry {
	t.Helper()
	reading, err := domain.NewTelemetry(domain.TelemetryInput{
		DeviceID:    "dev-001",
		TruckID:     "truck-42",
		Latitude:    19.4326,
		Longitude:   -99.1332,
		Temperature: 12, // alerting
		Humidity:    45,
		Timestamp:   time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return reading
}

func TestToMessage_KeyAndHeaders(t *testing.T) {
	msg, err := toMessage(testReading(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(msg.Key) != "dev-001" {
		t.Errorf("message key must be the device id, got %q", msg.Key)
	}

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event-type"] != "telemetry-ingested" {
		t.Errorf("unexpected event-type header: %q", headers["event-type"])
	}
	if headers["device-id"] != "dev-001" || headers["truck-id"] != "truck-42" {
		t.Errorf("identifier headers wrong: %v", headers)
	}
	if headers["needs-alert"] != "true" {
		t.Errorf("expected needs-alert=true for 12°C, got %q", headers["needs-alert"])
	}
	if headers["timestamp"] != "2026-08-30T14:05:00Z" {
		t.Errorf("unexpected timestamp header: %q", headers["timestamp"])
	}
}

func TestToMessage_PayloadIsCanonicalWireForm(t *testing.T) {
	msg, err := toMessage(testReading(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var record domain.TransportRecord
	if err := json.Unmarshal(msg.Value, &record); err != nil {
		t.Fatalf("payload is not wire-form JSON: %v", err)
	}
	if record.DeviceID != "dev-001" || record.Temperature != 12 {
		t.Errorf("unexpected payload: %+v", record)
	}
	if record.Speed != nil || record.Altitude != nil {
		t.Errorf("absent optional fields must be omitted: %+v", record)
	}
}

func TestPublish_FailsFastWhenDisconnected(t *testing.T) {
	bus := NewBus(Config{Brokers: []string{"localhost:29092"}}, zerolog.Nop())

	err := bus.Publish(context.Background(), testReading(t))
	if !errors.Is(err, domain.ErrBusNotConnected) {
		t.Fatalf("expected ErrBusNotConnected, got: %v", err)
	}

	err = bus.PublishBatch(context.Background(), []domain.Telemetry{testReading(t)})
	if !errors.Is(err, domain.ErrBusNotConnected) {
		t.Fatalf("expected ErrBusNotConnected for batch, got: %v", err)
	}
}
