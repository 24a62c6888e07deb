package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/logistream/fleet-telemetry/internal/core/domain"
)

func invoke(t *testing.T, err error) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return rec, body
}

func TestErrorHandler_ValidationIsClientError(t *testing.T) {
	err := fmt.Errorf("%w: latitude must be between -90 and 90 degrees", domain.ErrValidation)
	rec, body := invoke(t, err)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body.Error == "" || body.Error == "internal server error" {
		t.Errorf("validation message must reach the client, got %q", body.Error)
	}
}

func TestErrorHandler_BusDownIsServiceUnavailable(t *testing.T) {
	err := fmt.Errorf("publish telemetry: %w", domain.ErrBusNotConnected)
	rec, _ := invoke(t, err)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestErrorHandler_NotFound(t *testing.T) {
	rec, _ := invoke(t, domain.ErrTelemetryNotFound)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestErrorHandler_UnexpectedIsOpaque500(t *testing.T) {
	rec, body := invoke(t, errors.New("mongo: connection reset"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body.Error != "internal server error" {
		t.Errorf("internal details must not leak, got %q", body.Error)
	}
}

func TestErrorHandler_EchoErrorsPassThrough(t *testing.T) {
	rec, _ := invoke(t, echo.NewHTTPError(http.StatusUnprocessableEntity, "temperature is required"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
