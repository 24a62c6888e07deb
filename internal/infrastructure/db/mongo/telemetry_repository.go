package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/logistream/fleet-telemetry/internal/core/domain"
	"github.com/logistream/fleet-telemetry/internal/core/ports"
)

const telemetryCollection = "telemetry"

// TelemetryRepository implements ports.TelemetryRepository using MongoDB.
type TelemetryRepository struct {
	coll *mongo.Collection
}

// NewTelemetryRepository creates a new TelemetryRepository.
func NewTelemetryRepository(db *mongo.Database) ports.TelemetryRepository {
	return &TelemetryRepository{coll: db.Collection(telemetryCollection)}
}

// mongoTelemetry mirrors the wire form of a reading, with the timestamp kept
// as a native date so range queries and sorting work, plus store metadata.
type mongoTelemetry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	DeviceID    string             `bson:"deviceId"`
	TruckID     string             `bson:"truckId"`
	Latitude    float64            `bson:"latitude"`
	Longitude   float64            `bson:"longitude"`
	Temperature float64            `bson:"temperature"`
	Humidity    float64            `bson:"humidity"`
	Timestamp   time.Time          `bson:"timestamp"`
	Speed       *float64           `bson:"speed,omitempty"`
	Altitude    *float64           `bson:"altitude,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (r *TelemetryRepository) Save(ctx context.Context, t domain.Telemetry) (domain.Telemetry, error) {
	doc := mongoTelemetry{
		DeviceID:    t.DeviceID,
		TruckID:     t.TruckID,
		Latitude:    t.Latitude,
		Longitude:   t.Longitude,
		Temperature: t.Temperature,
		Humidity:    t.Humidity,
		Timestamp:   t.Timestamp.UTC(),
		Speed:       t.Speed,
		Altitude:    t.Altitude,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return domain.Telemetry{}, fmt.Errorf("insert telemetry: %w", err)
	}
	return t, nil
}

func (r *TelemetryRepository) FindByDeviceID(ctx context.Context, deviceID string, limit int) ([]domain.Telemetry, error) {
	return r.find(ctx, bson.M{"deviceId": deviceID}, int64(limit))
}

func (r *TelemetryRepository) FindByTruckID(ctx context.Context, truckID string, limit int) ([]domain.Telemetry, error) {
	return r.find(ctx, bson.M{"truckId": truckID}, int64(limit))
}

func (r *TelemetryRepository) FindByTimeRange(ctx context.Context, from, to time.Time) ([]domain.Telemetry, error) {
	filter := bson.M{"timestamp": bson.M{
		"$gte": from.UTC(),
		"$lte": to.UTC(),
	}}
	return r.find(ctx, filter, 0)
}

func (r *TelemetryRepository) LatestByDeviceID(ctx context.Context, deviceID string) (domain.Telemetry, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	var doc mongoTelemetry
	if err := r.coll.FindOne(ctx, bson.M{"deviceId": deviceID}, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return domain.Telemetry{}, domain.ErrTelemetryNotFound
		}
		return domain.Telemetry{}, fmt.Errorf("find latest telemetry: %w", err)
	}
	return toEntity(doc)
}

func (r *TelemetryRepository) find(ctx context.Context, filter bson.M, limit int64) ([]domain.Telemetry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find telemetry: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Telemetry
	for cur.Next(ctx) {
		var doc mongoTelemetry
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode telemetry: %w", err)
		}
		t, err := toEntity(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate telemetry: %w", err)
	}
	return out, nil
}

// toEntity rehydrates a stored document through the domain constructor so
// readers only ever see validated values.
func toEntity(doc mongoTelemetry) (domain.Telemetry, error) {
	t, err := domain.NewTelemetry(domain.TelemetryInput{
		DeviceID:    doc.DeviceID,
		TruckID:     doc.TruckID,
		Latitude:    doc.Latitude,
		Longitude:   doc.Longitude,
		Temperature: doc.Temperature,
		Humidity:    doc.Humidity,
		Timestamp:   doc.Timestamp,
		Speed:       doc.Speed,
		Altitude:    doc.Altitude,
	})
	if err != nil {
		return domain.Telemetry{}, fmt.Errorf("rehydrate telemetry %s: %w", doc.ID.Hex(), err)
	}
	return t, nil
}
