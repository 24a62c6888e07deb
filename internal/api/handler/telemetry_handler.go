package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/logistream/fleet-telemetry/internal/core/ports"
)

// TelemetryHandler handles telemetry ingestion and queries.
type TelemetryHandler struct {
	service ports.TelemetryService
}

// NewTelemetryHandler creates a TelemetryHandler backed by the given service.
func NewTelemetryHandler(service ports.TelemetryService) *TelemetryHandler {
	return &TelemetryHandler{service: service}
}

// Ingest handles POST /api/v1/telemetry — ingests a single reading, returns 202.
//
// @Summary      Ingest a single telemetry reading
// @Tags         telemetry
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      telemetryRequest  true  "Telemetry reading"
// @Success      202   {object}  ingestResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/v1/telemetry [post]
func (h *TelemetryHandler) Ingest(c echo.Context) error {
	var req telemetryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.service.Ingest(c.Request().Context(), toIngestInput(req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, ingestResponse{
		Success:   true,
		Message:   result.Message,
		Telemetry: toAck(result.Ack),
	})
}

// IngestBatch handles POST /api/v1/telemetry/batch — ingests up to 1000
// readings, returns 202 with per-item success/failure counts.
//
// @Summary      Ingest a batch of telemetry readings
// @Tags         telemetry
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      batchTelemetryRequest  true  "Batch of telemetry readings"
// @Success      202   {object}  batchIngestResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/v1/telemetry/batch [post]
func (h *TelemetryHandler) IngestBatch(c echo.Context) error {
	var req batchTelemetryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	inputs := make([]ports.IngestTelemetryInput, 0, len(req.Telemetry))
	for _, r := range req.Telemetry {
		inputs = append(inputs, toIngestInput(r))
	}

	result, err := h.service.IngestBatch(c.Request().Context(), inputs)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, batchIngestResponse{
		Success:  true,
		Message:  result.Message,
		Ingested: result.Ingested,
		Failed:   result.Failed,
	})
}

// ListByDevice handles GET /api/v1/telemetry/devices/:deviceId.
func (h *TelemetryHandler) ListByDevice(c echo.Context) error {
	readings, err := h.service.FindByDeviceID(c.Request().Context(), c.Param("deviceId"), queryLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTransportList(readings))
}

// ListByTruck handles GET /api/v1/telemetry/trucks/:truckId.
func (h *TelemetryHandler) ListByTruck(c echo.Context) error {
	readings, err := h.service.FindByTruckID(c.Request().Context(), c.Param("truckId"), queryLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTransportList(readings))
}

// ListByTimeRange handles GET /api/v1/telemetry/range?from=...&to=...
// with RFC 3339 bounds.
func (h *TelemetryHandler) ListByTimeRange(c echo.Context) error {
	from, err := time.Parse(time.RFC3339Nano, c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "from must be an RFC 3339 timestamp")
	}
	to, err := time.Parse(time.RFC3339Nano, c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "to must be an RFC 3339 timestamp")
	}
	if to.Before(from) {
		return echo.NewHTTPError(http.StatusBadRequest, "to must not precede from")
	}

	readings, err := h.service.FindByTimeRange(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTransportList(readings))
}

// LatestByDevice handles GET /api/v1/telemetry/devices/:deviceId/latest.
func (h *TelemetryHandler) LatestByDevice(c echo.Context) error {
	reading, err := h.service.LatestByDeviceID(c.Request().Context(), c.Param("deviceId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reading.Transport())
}

// queryLimit parses the optional ?limit= parameter; the service clamps it.
func queryLimit(c echo.Context) int {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
