package handler

// telemetryRequest is the raw ingestion input. Required numeric fields are
// pointers so an absent field can be told apart from a legitimate zero (0° is
// a valid latitude). Range checks live in the domain so the client sees the
// domain's own message.
type telemetryRequest struct {
	DeviceID    string   `json:"deviceId"    validate:"required"`
	TruckID     string   `json:"truckId"     validate:"required"`
	Latitude    *float64 `json:"latitude"    validate:"required"`
	Longitude   *float64 `json:"longitude"   validate:"required"`
	Temperature *float64 `json:"temperature" validate:"required"`
	Humidity    *float64 `json:"humidity"    validate:"required"`
	Timestamp   string   `json:"timestamp,omitempty"`
	Speed       *float64 `json:"speed,omitempty"`
	Altitude    *float64 `json:"altitude,omitempty"`
}

// batchTelemetryRequest bounds the batch size at the boundary; the
// orchestrator itself accepts any length.
type batchTelemetryRequest struct {
	Telemetry []telemetryRequest `json:"telemetry" validate:"required,min=1,max=1000"`
}

type telemetryAck struct {
	DeviceID   string `json:"deviceId"`
	TruckID    string `json:"truckId"`
	Timestamp  string `json:"timestamp"`
	NeedsAlert bool   `json:"needsAlert"`
}

type ingestResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Telemetry telemetryAck `json:"telemetry"`
}

type batchIngestResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Ingested int    `json:"ingested"`
	Failed   int    `json:"failed"`
}
