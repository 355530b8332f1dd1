package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thomas7124/aidentalbackend/internal/appointment"
	"github.com/thomas7124/aidentalbackend/internal/http/handlers"
	"github.com/thomas7124/aidentalbackend/internal/observability/metrics"
	"github.com/thomas7124/aidentalbackend/pkg/logging"
)

type stubGateway struct{}

func (stubGateway) Submit(context.Context, appointment.ValidRequest) appointment.Outcome {
	return appointment.Outcome{
		Status:  appointment.OutcomeSucceeded,
		Booking: json.RawMessage(`{"id":1}`),
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	reg := prometheus.NewRegistry()
	appointmentHandler := handlers.NewAppointmentHandler(handlers.AppointmentHandlerConfig{
		Validator: appointment.NewValidator("-05:00"),
		Guard:     appointment.NewMemoryGuard(2*time.Minute, logger),
		Gateway:   stubGateway{},
		Metrics:   metrics.NewBookingMetrics(reg),
		Logger:    logger,
	})

	return New(&Config{
		Logger:             logger,
		AppointmentHandler: appointmentHandler,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterAppointmentWebhookRegistered(t *testing.T) {
	router := newTestRouter(t)

	payload, _ := json.Marshal(map[string]any{
		"patient_name":       "Jane Doe",
		"phone_number":       "(657) 239-6233",
		"appointment_reason": "cleaning",
		"preferred_date":     "2024-06-01",
		"preferred_time":     "14:30",
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/appointments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
}

// Non-POST requests on the webhook must reach the handler so the voice
// platform sees the JSON 405 body, not chi's text default.
func TestRouterAppointmentWebhookMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/appointments", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("expected JSON 405 body: %v", err)
	}
	if resp["error"] != "Method not allowed" {
		t.Errorf("expected method-not-allowed error, got %q", resp["error"])
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}
