package ports

import (
	"context"

	"github.com/logistream/fleet-telemetry/internal/core/domain"
)

// MessageBus is the ordered, partition-keyed event stream telemetry is
// published to. The stream is the system of record: a publish that fails
// fails the ingest.
//
// Implementations key every message by the reading's device ID so downstream
// consumers observe a single device's events in emission order. Publish must
// fail immediately with domain.ErrBusNotConnected when IsConnected is false
// rather than block.
type MessageBus interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	Publish(ctx context.Context, t domain.Telemetry) error
}

// BatchMessageBus is a MessageBus whose transport can accept an ordered
// multi-record send in one call. Whether the orchestrator gets one is decided
// at construction time; there is no runtime capability probing.
type BatchMessageBus interface {
	MessageBus
	PublishBatch(ctx context.Context, ts []domain.Telemetry) error
}
