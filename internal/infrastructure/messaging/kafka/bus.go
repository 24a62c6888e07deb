// Package kafka implements the message bus ports on Apache Kafka using
// segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/logistream/fleet-telemetry/internal/core/domain"
)

const defaultTopic = "telemetry-events"

// Config captures the settings for the Kafka producer.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// Bus publishes telemetry to a Kafka topic, keyed by device ID so every
// device's readings land on one partition in emission order. Bus satisfies
// ports.BatchMessageBus.
type Bus struct {
	writer    *kafka.Writer
	brokers   []string
	topic     string
	connected atomic.Bool
	log       zerolog.Logger
}

// NewBus creates a Kafka-backed bus. Call Connect before publishing and
// Disconnect when shutting down.
func NewBus(cfg Config, log zerolog.Logger) *Bus {
	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
	}

	writer := &kafka.Writer{
		Addr:  kafka.TCP(cfg.Brokers...),
		Topic: topic,
		// Hash keeps each key on a stable partition; this is what turns the
		// device-ID key into a per-device ordering guarantee.
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	if cfg.ClientID != "" {
		writer.Transport = &kafka.Transport{ClientID: cfg.ClientID}
	}

	return &Bus{
		writer:  writer,
		brokers: cfg.Brokers,
		topic:   topic,
		log:     log,
	}
}

// Connect verifies a broker is reachable and marks the bus connected. The
// writer itself is connectionless; the dial exists so startup fails fast when
// Kafka is down instead of at the first publish.
func (b *Bus) Connect(ctx context.Context) error {
	if b.connected.Load() {
		return nil
	}
	if len(b.brokers) == 0 {
		return fmt.Errorf("kafka connect: no brokers configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka connect: %w", err)
	}
	_ = conn.Close()

	b.connected.Store(true)
	b.log.Info().Strs("brokers", b.brokers).Str("topic", b.topic).Msg("kafka producer connected")
	return nil
}

// Disconnect closes the writer. Safe to call when never connected.
func (b *Bus) Disconnect(_ context.Context) error {
	if !b.connected.Swap(false) {
		return nil
	}
	if err := b.writer.Close(); err != nil {
		return fmt.Errorf("kafka disconnect: %w", err)
	}
	b.log.Info().Msg("kafka producer disconnected")
	return nil
}

func (b *Bus) IsConnected() bool {
	return b.connected.Load()
}

// Publish sends one reading, keyed by device ID. Fails immediately with
// domain.ErrBusNotConnected when the bus is down.
func (b *Bus) Publish(ctx context.Context, t domain.Telemetry) error {
	if !b.connected.Load() {
		return domain.ErrBusNotConnected
	}

	msg, err := toMessage(t)
	if err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}

	b.log.Debug().Str("device_id", t.DeviceID).Msg("telemetry published")
	return nil
}

// PublishBatch sends readings in one write, preserving slice order. Messages
// sharing a device ID keep their relative order on the partition.
func (b *Bus) PublishBatch(ctx context.Context, ts []domain.Telemetry) error {
	if !b.connected.Load() {
		return domain.ErrBusNotConnected
	}

	msgs := make([]kafka.Message, 0, len(ts))
	for _, t := range ts {
		msg, err := toMessage(t)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := b.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka publish batch: %w", err)
	}

	b.log.Debug().Int("count", len(ts)).Msg("telemetry batch published")
	return nil
}

// toMessage builds the wire message: canonical JSON payload plus descriptive
// headers so consumers can filter without deserializing the body.
func toMessage(t domain.Telemetry) (kafka.Message, error) {
	record := t.Transport()
	payload, err := json.Marshal(record)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal telemetry: %w", err)
	}

	return kafka.Message{
		Key:   []byte(t.DeviceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("telemetry-ingested")},
			{Key: "device-id", Value: []byte(t.DeviceID)},
			{Key: "truck-id", Value: []byte(t.TruckID)},
			{Key: "timestamp", Value: []byte(record.Timestamp)},
			{Key: "needs-alert", Value: []byte(strconv.FormatBool(t.NeedsAlert()))},
		},
	}, nil
}
