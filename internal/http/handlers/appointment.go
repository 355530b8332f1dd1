package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/thomas7124/aidentalbackend/internal/appointment"
	"github.com/thomas7124/aidentalbackend/internal/observability/metrics"
	"github.com/thomas7124/aidentalbackend/pkg/logging"
)

// BookingGateway submits a validated request to the upstream calendar and
// classifies the response. Implemented by calcom.Client.
type BookingGateway interface {
	Submit(ctx context.Context, req appointment.ValidRequest) appointment.Outcome
}

// submitTimeout bounds the upstream round trip once the caller's connection
// no longer matters.
const submitTimeout = 30 * time.Second

// requestState tracks a request through the handler's state machine:
// received -> validated -> (emergency | dedup_blocked | submitted) -> resolved.
type requestState string

const (
	stateReceived     requestState = "received"
	stateValidated    requestState = "validated"
	stateEmergency    requestState = "emergency_short_circuit"
	stateDedupBlocked requestState = "dedup_blocked"
	stateSubmitted    requestState = "submitted"
)

// AppointmentHandler handles the voice assistant's appointment webhook. One
// inbound call flows strictly forward: validate, dedup-check, submit,
// classify, respond. Exactly one terminal result is written per request.
type AppointmentHandler struct {
	validator *appointment.Validator
	guard     appointment.Guard
	gateway   BookingGateway
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
}

// AppointmentHandlerConfig configures the AppointmentHandler.
type AppointmentHandlerConfig struct {
	Validator *appointment.Validator
	Guard     appointment.Guard
	Gateway   BookingGateway
	Metrics   *metrics.BookingMetrics
	Logger    *logging.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(cfg AppointmentHandlerConfig) *AppointmentHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &AppointmentHandler{
		validator: cfg.Validator,
		guard:     cfg.Guard,
		gateway:   cfg.Gateway,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

type appointmentResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
	Details string          `json:"details,omitempty"`
	Booking json.RawMessage `json:"booking,omitempty"`
}

// HandleAppointment is the HTTP handler for POST /webhooks/appointments.
func (h *AppointmentHandler) HandleAppointment(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	defer func() {
		h.metrics.ObserveLatency(time.Since(started).Seconds())
	}()

	if r.Method != http.MethodPost {
		h.metrics.ObserveRequest("method_not_allowed")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	state := stateReceived

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.resolveValidationError(w, reqID, state, "Invalid request body")
		return
	}
	var req appointment.Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.resolveValidationError(w, reqID, state, "Invalid JSON payload")
		return
	}

	valid, emergency, err := h.validator.Validate(req)
	switch {
	case err == nil && emergency:
		// Booking is never attempted for emergencies; the flag is surfaced
		// for manual follow-up by the on-call staff.
		state = stateEmergency
		h.logger.Warn("appointment: emergency flagged",
			"request_id", reqID,
			"patient_name", req.PatientName,
		)
		h.metrics.ObserveRequest("emergency")
		writeJSON(w, http.StatusOK, appointmentResponse{
			Success: true,
			Message: "Emergency flagged – manual follow-up required",
		})
		return
	case err != nil:
		h.resolveValidationError(w, reqID, state, validationMessage(err))
		return
	}
	state = stateValidated

	fp := appointment.Fingerprint(*valid)
	acquired, err := h.guard.TryAcquire(r.Context(), fp)
	if err != nil {
		// The guard is best-effort; a broken guard never blocks a booking.
		h.logger.Warn("appointment: dedup guard error, proceeding", "error", err, "request_id", reqID)
		acquired = true
	}
	if !acquired {
		// Soft success: the voice channel retried because it never heard the
		// first answer, so replay a booked-shaped response.
		state = stateDedupBlocked
		h.logger.Info("appointment: duplicate suppressed",
			"request_id", reqID,
			"fingerprint", fp,
		)
		h.metrics.ObserveRequest("duplicate")
		writeJSON(w, http.StatusOK, appointmentResponse{
			Success: true,
			Message: "Appointment already booked",
		})
		return
	}

	// Detach from the client connection: a caller hang-up must not abort a
	// booking that may already be in flight upstream.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), submitTimeout)
	defer cancel()

	state = stateSubmitted
	upstreamStart := time.Now()
	outcome, panicked := h.submitGuarded(ctx, *valid, fp, reqID)
	h.metrics.ObserveUpstream(string(outcome.Status), time.Since(upstreamStart).Seconds())

	if panicked {
		h.metrics.ObserveRequest("internal_error")
		writeJSON(w, http.StatusInternalServerError, appointmentResponse{
			Success: false,
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		})
		return
	}

	switch outcome.Status {
	case appointment.OutcomeSucceeded:
		h.logger.Info("appointment: booked",
			"request_id", reqID,
			"state", string(state),
			"phone", valid.Phone.E164(),
			"start", valid.Start.UTC().Format(time.RFC3339),
		)
		h.metrics.ObserveRequest("success")
		writeJSON(w, http.StatusOK, appointmentResponse{
			Success: true,
			Message: "Appointment booked successfully",
			Booking: outcome.Booking,
		})
	case appointment.OutcomeSlotUnavailable:
		// Terminal failure: free the fingerprint so the caller can retry the
		// same slot later without being told it is already booked.
		h.release(ctx, fp, reqID)
		h.metrics.ObserveRequest("slot_unavailable")
		writeJSON(w, http.StatusConflict, appointmentResponse{
			Success: false,
			Code:    "TIME_SLOT_UNAVAILABLE",
			Message: "That time is no longer available. Would you like to choose a different time?",
		})
	default:
		h.release(ctx, fp, reqID)
		h.logger.Error("appointment: upstream failure",
			"request_id", reqID,
			"detail", outcome.Detail,
		)
		h.metrics.ObserveRequest("upstream_error")
		writeJSON(w, http.StatusInternalServerError, appointmentResponse{
			Success: false,
			Code:    "UPSTREAM_ERROR",
			Message: "We couldn't reach the scheduling system. Please try again.",
			Details: outcome.Detail,
		})
	}
}

// submitGuarded calls the gateway and converts a panic into a released
// fingerprint, so an unexpected bug never starves a legitimate retry.
func (h *AppointmentHandler) submitGuarded(ctx context.Context, valid appointment.ValidRequest, fp, reqID string) (outcome appointment.Outcome, panicked bool) {
	defer func() {
		if rec := recover(); rec != nil {
			panicked = true
			h.logger.Error("appointment: panic during submission",
				"panic", rec,
				"request_id", reqID,
			)
			h.release(ctx, fp, reqID)
		}
	}()
	outcome = h.gateway.Submit(ctx, valid)
	return outcome, false
}

func (h *AppointmentHandler) release(ctx context.Context, fp, reqID string) {
	if err := h.guard.Release(ctx, fp); err != nil {
		h.logger.Warn("appointment: failed to release dedup entry",
			"error", err,
			"request_id", reqID,
			"fingerprint", fp,
		)
	}
}

func (h *AppointmentHandler) resolveValidationError(w http.ResponseWriter, reqID string, state requestState, message string) {
	h.logger.Info("appointment: rejected",
		"request_id", reqID,
		"state", string(state),
		"reason", message,
	)
	h.metrics.ObserveRequest("validation_error")
	writeJSON(w, http.StatusBadRequest, appointmentResponse{
		Success: false,
		Error:   message,
	})
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, appointment.ErrMissingFields):
		return "Missing required appointment fields"
	case errors.Is(err, appointment.ErrInvalidPhone):
		return "Invalid phone number format"
	case errors.Is(err, appointment.ErrInvalidDateTime):
		return "Invalid date or time format"
	default:
		return "Invalid appointment request"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
