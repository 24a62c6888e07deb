package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/logistream/fleet-telemetry/internal/api/metrics"
	"github.com/logistream/fleet-telemetry/internal/core/domain"
	"github.com/logistream/fleet-telemetry/internal/core/ports"
)

const (
	defaultQueryLimit = 100
	persistTimeout    = 10 * time.Second
)

// LatestCache abstracts the per-device latest-reading cache (Redis).
type LatestCache interface {
	SetLatest(ctx context.Context, t domain.Telemetry) error
	// GetLatest returns the cached reading and whether one was present.
	GetLatest(ctx context.Context, deviceID string) (domain.Telemetry, bool, error)
}

type telemetryService struct {
	repo  ports.TelemetryRepository
	bus   ports.MessageBus
	batch ports.BatchMessageBus // nil when the bus has no batch capability
	cache LatestCache           // nil disables the latest-reading cache
	log   zerolog.Logger
}

// NewTelemetryService returns a TelemetryService implementation.
//
// batch selects the batch-publish capability at construction time: pass the
// bus adapter again when it implements ports.BatchMessageBus, or nil to make
// batch ingestion publish valid records one by one.
func NewTelemetryService(
	repo ports.TelemetryRepository,
	bus ports.MessageBus,
	batch ports.BatchMessageBus,
	cache LatestCache,
	log zerolog.Logger,
) ports.TelemetryService {
	return &telemetryService{
		repo:  repo,
		bus:   bus,
		batch: batch,
		cache: cache,
		log:   log,
	}
}

// Ingest validates a single reading, publishes it to the message bus, and
// detaches a best-effort store write.
//
// The bus publish is the authoritative step: its failure fails the call. The
// store write never does; its outcome is only visible in logs and metrics.
func (s *telemetryService) Ingest(ctx context.Context, in ports.IngestTelemetryInput) (*ports.IngestResult, error) {
	t, err := s.buildTelemetry(in)
	if err != nil {
		metrics.IngestFailuresTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	if err := s.publish(ctx, t); err != nil {
		return nil, err
	}

	s.persistDetached([]domain.Telemetry{t})

	metrics.IngestedTotal.WithLabelValues(fmt.Sprintf("%t", t.NeedsAlert())).Inc()
	s.log.Info().
		Str("device_id", t.DeviceID).
		Str("truck_id", t.TruckID).
		Bool("needs_alert", t.NeedsAlert()).
		Msg("telemetry ingested")

	return &ports.IngestResult{
		Message: "Telemetry data ingested successfully",
		Ack: ports.TelemetryAck{
			DeviceID:   t.DeviceID,
			TruckID:    t.TruckID,
			Timestamp:  t.Timestamp,
			NeedsAlert: t.NeedsAlert(),
		},
	}, nil
}

// IngestBatch validates each input independently, publishes everything valid
// in input order, and detaches one store write for the whole set. A
// validation failure only sinks its own item; a bus failure sinks the call.
func (s *telemetryService) IngestBatch(ctx context.Context, ins []ports.IngestTelemetryInput) (*ports.BatchIngestResult, error) {
	valid := make([]domain.Telemetry, 0, len(ins))
	failed := 0

	for i, in := range ins {
		t, err := s.buildTelemetry(in)
		if err != nil {
			failed++
			metrics.IngestFailuresTotal.WithLabelValues("validation").Inc()
			s.log.Warn().Err(err).
				Int("item", i).
				Str("device_id", in.DeviceID).
				Msg("batch item rejected")
			continue
		}
		valid = append(valid, t)
	}

	if len(valid) > 0 {
		if err := s.publishAll(ctx, valid); err != nil {
			return nil, err
		}
		s.persistDetached(valid)
	}

	metrics.BatchItemsTotal.WithLabelValues("ingested").Add(float64(len(valid)))
	metrics.BatchItemsTotal.WithLabelValues("failed").Add(float64(failed))
	s.log.Info().
		Int("ingested", len(valid)).
		Int("failed", failed).
		Msg("batch telemetry ingestion completed")

	return &ports.BatchIngestResult{
		Message:  "Batch telemetry ingestion completed",
		Ingested: len(valid),
		Failed:   failed,
	}, nil
}

// buildTelemetry resolves the effective timestamp and constructs the
// validated domain value. A supplied but unparsable timestamp is a validation
// failure, never silently replaced by "now".
func (s *telemetryService) buildTelemetry(in ports.IngestTelemetryInput) (domain.Telemetry, error) {
	ts := time.Now().UTC()
	if in.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, in.Timestamp)
		if err != nil {
			return domain.Telemetry{}, fmt.Errorf("%w: invalid timestamp format", domain.ErrValidation)
		}
		ts = parsed
	}

	return domain.NewTelemetry(domain.TelemetryInput{
		DeviceID:    in.DeviceID,
		TruckID:     in.TruckID,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		Timestamp:   ts,
		Speed:       in.Speed,
		Altitude:    in.Altitude,
	})
}

func (s *telemetryService) publish(ctx context.Context, t domain.Telemetry) error {
	start := time.Now()
	err := s.bus.Publish(ctx, t)
	metrics.PublishDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.IngestFailuresTotal.WithLabelValues("publish").Inc()
		s.log.Error().Err(err).Str("device_id", t.DeviceID).Msg("telemetry publish failed")
		return fmt.Errorf("publish telemetry: %w", err)
	}
	return nil
}

// publishAll sends valid records to the bus in input order, in one batch call
// when a batch publisher was configured, otherwise one by one.
func (s *telemetryService) publishAll(ctx context.Context, ts []domain.Telemetry) error {
	if s.batch != nil {
		start := time.Now()
		err := s.batch.PublishBatch(ctx, ts)
		metrics.PublishDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.IngestFailuresTotal.WithLabelValues("publish").Inc()
			s.log.Error().Err(err).Int("count", len(ts)).Msg("telemetry batch publish failed")
			return fmt.Errorf("publish telemetry batch: %w", err)
		}
		return nil
	}

	for _, t := range ts {
		if err := s.publish(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// persistDetached starts the store write for ts and returns without waiting.
// The goroutine is never joined: the store is a convenience read-index that
// may lag or miss an entry, and no caller blocks on it. Failures land in the
// log and the store-write failure counter only.
func (s *telemetryService) persistDetached(ts []domain.Telemetry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		for _, t := range ts {
			if _, err := s.repo.Save(ctx, t); err != nil {
				metrics.StoreWriteFailuresTotal.Inc()
				s.log.Warn().Err(err).
					Str("device_id", t.DeviceID).
					Msg("failed to persist telemetry")
				continue
			}
			if s.cache != nil {
				if err := s.cache.SetLatest(ctx, t); err != nil {
					s.log.Warn().Err(err).
						Str("device_id", t.DeviceID).
						Msg("failed to refresh latest-reading cache")
				}
			}
		}
	}()
}

func (s *telemetryService) FindByDeviceID(ctx context.Context, deviceID string, limit int) ([]domain.Telemetry, error) {
	return s.repo.FindByDeviceID(ctx, deviceID, clampLimit(limit))
}

func (s *telemetryService) FindByTruckID(ctx context.Context, truckID string, limit int) ([]domain.Telemetry, error) {
	return s.repo.FindByTruckID(ctx, truckID, clampLimit(limit))
}

func (s *telemetryService) FindByTimeRange(ctx context.Context, from, to time.Time) ([]domain.Telemetry, error) {
	return s.repo.FindByTimeRange(ctx, from, to)
}

// LatestByDeviceID serves the latest reading from the cache when possible and
// falls back to the store. Cache errors degrade to a store read.
func (s *telemetryService) LatestByDeviceID(ctx context.Context, deviceID string) (domain.Telemetry, error) {
	if s.cache != nil {
		t, ok, err := s.cache.GetLatest(ctx, deviceID)
		if err != nil {
			s.log.Warn().Err(err).Str("device_id", deviceID).Msg("latest-reading cache lookup failed")
		} else if ok {
			return t, nil
		}
	}
	return s.repo.LatestByDeviceID(ctx, deviceID)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return defaultQueryLimit
	}
	return limit
}
