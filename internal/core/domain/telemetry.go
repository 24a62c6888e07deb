package domain

import (
	"errors"
	"fmt"
	"time"
)

// clockSkewTolerance is how far into the future a reported timestamp may lie
// before it is rejected (device clocks drift).
const clockSkewTolerance = 60 * time.Second

// Alert thresholds for refrigerated cargo.
const (
	alertTempMin = -20.0 // °C
	alertTempMax = 5.0   // °C
	alertHumMax  = 80.0  // %
)

var ErrValidation = errors.New("telemetry validation failed")
var ErrTelemetryNotFound = errors.New("telemetry not found")
var ErrBusNotConnected = errors.New("message bus is not connected")

// IsValidationError reports whether err originated from telemetry validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// TelemetryInput is the raw, unvalidated material for a Telemetry value.
type TelemetryInput struct {
	DeviceID    string
	TruckID     string
	Latitude    float64
	Longitude   float64
	Temperature float64
	Humidity    float64
	Timestamp   time.Time
	Speed       *float64 // km/h, optional
	Altitude    *float64 // metres, optional
}

// Telemetry is one validated sensor reading from a device on a truck.
//
// Values are only obtainable through NewTelemetry, which enforces every bound
// below; a Telemetry that exists is valid. Treat it as read-only — derive a
// changed reading by constructing a new value.
type Telemetry struct {
	DeviceID    string
	TruckID     string
	Latitude    float64
	Longitude   float64
	Temperature float64
	Humidity    float64
	Timestamp   time.Time
	Speed       *float64
	Altitude    *float64
}

// NewTelemetry validates in and returns the telemetry value. Checks run in a
// fixed order and the first violation wins; the returned error wraps
// ErrValidation and names the offending field and its valid range.
func NewTelemetry(in TelemetryInput) (Telemetry, error) {
	if in.DeviceID == "" {
		return Telemetry{}, validationError("device ID is required")
	}
	if in.TruckID == "" {
		return Telemetry{}, validationError("truck ID is required")
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		return Telemetry{}, validationError("latitude must be between -90 and 90 degrees")
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return Telemetry{}, validationError("longitude must be between -180 and 180 degrees")
	}
	if in.Temperature < -40 || in.Temperature > 40 {
		return Telemetry{}, validationError("temperature must be between -40°C and 40°C")
	}
	if in.Humidity < 0 || in.Humidity > 100 {
		return Telemetry{}, validationError("humidity must be between 0% and 100%")
	}
	if in.Timestamp.IsZero() {
		return Telemetry{}, validationError("timestamp is required")
	}
	if in.Timestamp.After(time.Now().Add(clockSkewTolerance)) {
		return Telemetry{}, validationError("timestamp cannot be in the future")
	}
	if in.Speed != nil && (*in.Speed < 0 || *in.Speed > 200) {
		return Telemetry{}, validationError("speed must be between 0 and 200 km/h")
	}
	if in.Altitude != nil && (*in.Altitude < -500 || *in.Altitude > 9000) {
		return Telemetry{}, validationError("altitude must be between -500 and 9000 meters")
	}

	return Telemetry{
		DeviceID:    in.DeviceID,
		TruckID:     in.TruckID,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		Timestamp:   in.Timestamp,
		Speed:       in.Speed,
		Altitude:    in.Altitude,
	}, nil
}

// IsTemperatureAlert reports whether the temperature is outside the safe
// range for refrigerated goods.
func (t Telemetry) IsTemperatureAlert() bool {
	return t.Temperature < alertTempMin || t.Temperature > alertTempMax
}

// IsHumidityAlert reports whether humidity exceeds the safe maximum.
func (t Telemetry) IsHumidityAlert() bool {
	return t.Humidity > alertHumMax
}

// NeedsAlert reports whether any alert condition holds for this reading.
func (t Telemetry) NeedsAlert() bool {
	return t.IsTemperatureAlert() || t.IsHumidityAlert()
}

// TransportRecord is the canonical wire form of a reading. The same bytes are
// handed to the message bus and the telemetry store so every consumer sees an
// identical payload.
type TransportRecord struct {
	DeviceID    string   `json:"deviceId" bson:"deviceId"`
	TruckID     string   `json:"truckId" bson:"truckId"`
	Latitude    float64  `json:"latitude" bson:"latitude"`
	Longitude   float64  `json:"longitude" bson:"longitude"`
	Temperature float64  `json:"temperature" bson:"temperature"`
	Humidity    float64  `json:"humidity" bson:"humidity"`
	Timestamp   string   `json:"timestamp" bson:"timestamp"`
	Speed       *float64 `json:"speed,omitempty" bson:"speed,omitempty"`
	Altitude    *float64 `json:"altitude,omitempty" bson:"altitude,omitempty"`
}

// Transport serializes the reading to its canonical wire form. The timestamp
// is rendered as RFC 3339 UTC; absent optional fields are omitted.
func (t Telemetry) Transport() TransportRecord {
	return TransportRecord{
		DeviceID:    t.DeviceID,
		TruckID:     t.TruckID,
		Latitude:    t.Latitude,
		Longitude:   t.Longitude,
		Temperature: t.Temperature,
		Humidity:    t.Humidity,
		Timestamp:   t.Timestamp.UTC().Format(time.RFC3339Nano),
		Speed:       t.Speed,
		Altitude:    t.Altitude,
	}
}
