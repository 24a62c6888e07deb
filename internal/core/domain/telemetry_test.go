package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func validInput() TelemetryInput {
	return TelemetryInput{
		DeviceID:    "dev-001",
		TruckID:     "truck-42",
		Latitude:    19.4326,
		Longitude:   -99.1332,
		Temperature: -5,
		Humidity:    45,
		Timestamp:   time.Now().UTC(),
	}
}

func f(v float64) *float64 { return &v }

func TestNewTelemetry_RoundTripIdentity(t *testing.T) {
	in := validInput()
	in.Speed = f(80)
	in.Altitude = f(2240)

	got, err := NewTelemetry(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.DeviceID != in.DeviceID || got.TruckID != in.TruckID {
		t.Errorf("identifier mismatch: %+v", got)
	}
	if got.Latitude != in.Latitude || got.Longitude != in.Longitude {
		t.Errorf("coordinate mismatch: %+v", got)
	}
	if got.Temperature != in.Temperature || got.Humidity != in.Humidity {
		t.Errorf("sensor value mismatch: %+v", got)
	}
	if !got.Timestamp.Equal(in.Timestamp) {
		t.Errorf("timestamp mismatch: got %v want %v", got.Timestamp, in.Timestamp)
	}
	if got.Speed == nil || *got.Speed != 80 {
		t.Errorf("speed mismatch: %v", got.Speed)
	}
	if got.Altitude == nil || *got.Altitude != 2240 {
		t.Errorf("altitude mismatch: %v", got.Altitude)
	}
}

func TestNewTelemetry_BoundaryValuesAccepted(t *testing.T) {
	in := validInput()
	in.Latitude = -90
	in.Longitude = 180
	in.Temperature = 40
	in.Humidity = 0
	in.Speed = f(200)
	in.Altitude = f(-500)

	if _, err := NewTelemetry(in); err != nil {
		t.Fatalf("boundary values should be valid, got: %v", err)
	}
}

func TestNewTelemetry_ClockSkewWithinToleranceAccepted(t *testing.T) {
	in := validInput()
	in.Timestamp = time.Now().Add(30 * time.Second)

	if _, err := NewTelemetry(in); err != nil {
		t.Fatalf("timestamp within skew tolerance should be valid, got: %v", err)
	}
}

func TestNewTelemetry_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TelemetryInput)
		wantMsg string
	}{
		{"empty device id", func(in *TelemetryInput) { in.DeviceID = "" }, "device ID"},
		{"empty truck id", func(in *TelemetryInput) { in.TruckID = "" }, "truck ID"},
		{"latitude too high", func(in *TelemetryInput) { in.Latitude = 100 }, "latitude must be between -90 and 90"},
		{"latitude too low", func(in *TelemetryInput) { in.Latitude = -91 }, "latitude must be between -90 and 90"},
		{"longitude too high", func(in *TelemetryInput) { in.Longitude = 181 }, "longitude must be between -180 and 180"},
		{"temperature too high", func(in *TelemetryInput) { in.Temperature = 50 }, "temperature must be between -40°C and 40°C"},
		{"temperature too low", func(in *TelemetryInput) { in.Temperature = -41 }, "temperature must be between -40°C and 40°C"},
		{"humidity too high", func(in *TelemetryInput) { in.Humidity = 150 }, "humidity must be between 0% and 100%"},
		{"humidity negative", func(in *TelemetryInput) { in.Humidity = -1 }, "humidity must be between 0% and 100%"},
		{"zero timestamp", func(in *TelemetryInput) { in.Timestamp = time.Time{} }, "timestamp is required"},
		{"future timestamp", func(in *TelemetryInput) { in.Timestamp = time.Now().Add(2 * time.Minute) }, "timestamp cannot be in the future"},
		{"speed too high", func(in *TelemetryInput) { in.Speed = f(250) }, "speed must be between 0 and 200"},
		{"speed negative", func(in *TelemetryInput) { in.Speed = f(-1) }, "speed must be between 0 and 200"},
		{"altitude too high", func(in *TelemetryInput) { in.Altitude = f(9500) }, "altitude must be between -500 and 9000"},
		{"altitude too low", func(in *TelemetryInput) { in.Altitude = f(-600) }, "altitude must be between -500 and 9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := NewTelemetry(in)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !IsValidationError(err) {
				t.Errorf("expected error to wrap ErrValidation, got: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not name the violation %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestNewTelemetry_FirstFailureWins(t *testing.T) {
	in := validInput()
	in.DeviceID = ""
	in.Latitude = 100
	in.Humidity = 150

	_, err := NewTelemetry(in)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "device ID") {
		t.Errorf("expected the first violation (device ID) to win, got: %v", err)
	}
}

func TestAlertPredicates(t *testing.T) {
	tests := []struct {
		name        string
		temperature float64
		humidity    float64
		wantTemp    bool
		wantHum     bool
	}{
		{"safe reading", -5, 45, false, false},
		{"temperature too warm", 10, 45, true, false},
		{"temperature too cold", -25, 45, true, false},
		{"humidity too high", -5, 85, false, true},
		{"both alerting", 30, 95, true, true},
		{"temperature at upper threshold", 5, 45, false, false},
		{"temperature at lower threshold", -20, 45, false, false},
		{"humidity at threshold", -5, 80, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.Temperature = tt.temperature
			in.Humidity = tt.humidity

			reading, err := NewTelemetry(in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := reading.IsTemperatureAlert(); got != tt.wantTemp {
				t.Errorf("IsTemperatureAlert() = %v, want %v", got, tt.wantTemp)
			}
			if got := reading.IsHumidityAlert(); got != tt.wantHum {
				t.Errorf("IsHumidityAlert() = %v, want %v", got, tt.wantHum)
			}
			if got := reading.NeedsAlert(); got != (tt.wantTemp || tt.wantHum) {
				t.Errorf("NeedsAlert() = %v", got)
			}
		})
	}
}

func TestTransport_OmitsAbsentOptionalFields(t *testing.T) {
	reading, err := NewTelemetry(validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, err := json.Marshal(reading.Transport())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	s := string(payload)
	if strings.Contains(s, "speed") || strings.Contains(s, "altitude") {
		t.Errorf("absent optional fields should be omitted, got: %s", s)
	}
	if !strings.Contains(s, `"deviceId":"dev-001"`) {
		t.Errorf("unexpected payload: %s", s)
	}
}

func TestTransport_TimestampIsRFC3339UTC(t *testing.T) {
	in := validInput()
	in.Timestamp = time.Date(2026, 8, 30, 14, 5, 0, 0, time.FixedZone("CST", -6*3600))

	reading, err := NewTelemetry(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := reading.Transport()
	parsed, err := time.Parse(time.RFC3339Nano, record.Timestamp)
	if err != nil {
		t.Fatalf("transport timestamp not RFC 3339: %q", record.Timestamp)
	}
	if !parsed.Equal(in.Timestamp) {
		t.Errorf("timestamp changed in transit: got %v want %v", parsed, in.Timestamp)
	}
	if !strings.HasSuffix(record.Timestamp, "Z") {
		t.Errorf("expected UTC rendering, got %q", record.Timestamp)
	}
}
