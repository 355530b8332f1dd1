// Package calcom provides a client for the Cal.com v1 bookings API and
// classifies its responses into the closed set of booking outcomes. Cal.com
// signals failure inconsistently (non-2xx statuses, 2xx bodies carrying an
// error message, success bodies missing the booking id), so every response
// goes through an ordered classification policy instead of a status check.
package calcom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/thomas7124/aidentalbackend/internal/appointment"
	"github.com/thomas7124/aidentalbackend/pkg/logging"
)

const (
	defaultBaseURL = "https://api.cal.com/v1"
	defaultTimeout = 15 * time.Second

	// The upstream API requires an email field structurally; the voice
	// channel never collects one, so a sentinel is sent.
	sentinelEmail   = "noemail@yourclinic.com"
	bookingLocation = "In-person"
)

var tracer = otel.Tracer("aidental.internal.calcom")

// Client is a Cal.com v1 API client.
type Client struct {
	baseURL     string
	apiKey      string
	eventTypeID int
	timeZone    string
	httpClient  *http.Client
	logger      *logging.Logger
	dryRun      bool // When true, Submit logs but doesn't actually book
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Cal.com API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithDryRun enables dry-run mode — Submit will log the request but return
// a fake success without calling Cal.com.
func WithDryRun(dryRun bool) Option {
	return func(c *Client) {
		c.dryRun = dryRun
	}
}

// NewClient creates a new Cal.com API client. timeZone is the IANA label
// sent alongside the absolute start instant.
func NewClient(apiKey string, eventTypeID int, timeZone string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL:     defaultBaseURL,
		apiKey:      apiKey,
		eventTypeID: eventTypeID,
		timeZone:    timeZone,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// bookingRequest is the Cal.com v1 POST /bookings body.
type bookingRequest struct {
	EventTypeID int               `json:"eventTypeId"`
	Start       string            `json:"start"`
	TimeZone    string            `json:"timeZone"`
	Language    string            `json:"language"`
	Metadata    map[string]string `json:"metadata"`
	Responses   bookingResponses  `json:"responses"`
}

type bookingResponses struct {
	Name                string `json:"name"`
	AttendeePhoneNumber string `json:"attendeePhoneNumber"`
	Notes               string `json:"notes"`
	Email               string `json:"email"`
	Location            string `json:"location"`
}

// Submit books the validated request upstream and classifies the response.
// It never returns an error: every failure mode maps to an Outcome so the
// caller sees exactly one of the closed set.
func (c *Client) Submit(ctx context.Context, req appointment.ValidRequest) appointment.Outcome {
	ctx, span := tracer.Start(ctx, "calcom.create_booking")
	defer span.End()
	span.SetAttributes(
		attribute.Int("calcom.event_type_id", c.eventTypeID),
		attribute.String("calcom.start", req.Start.UTC().Format(time.RFC3339)),
	)

	if c.dryRun {
		c.logger.Info("DRY RUN: would create Cal.com booking",
			"name", req.PatientName,
			"phone", req.Phone.E164(),
			"start", req.Start.UTC().Format(time.RFC3339),
			"event_type_id", c.eventTypeID,
		)
		fake, _ := json.Marshal(map[string]any{
			"id":      time.Now().UnixMilli(),
			"message": "DRY_RUN",
		})
		return appointment.Outcome{Status: appointment.OutcomeSucceeded, Booking: fake}
	}

	payload := bookingRequest{
		EventTypeID: c.eventTypeID,
		Start:       req.Start.UTC().Format(time.RFC3339),
		TimeZone:    c.timeZone,
		Language:    "en",
		Metadata:    map[string]string{},
		Responses: bookingResponses{
			Name:                req.PatientName,
			AttendeePhoneNumber: req.Phone.Dashed(),
			Notes:               req.Reason,
			Email:               sentinelEmail,
			Location:            bookingLocation,
		},
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return c.upstreamFailure(span, fmt.Sprintf("marshal request: %v", err))
	}

	endpoint := fmt.Sprintf("%s/bookings?apiKey=%s", c.baseURL, url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return c.upstreamFailure(span, fmt.Sprintf("create request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.upstreamFailure(span, fmt.Sprintf("http request: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return c.upstreamFailure(span, fmt.Sprintf("read response: %v", err))
	}

	outcome := classify(resp.StatusCode, respBody)
	span.SetAttributes(attribute.String("calcom.outcome", string(outcome.Status)))

	switch outcome.Status {
	case appointment.OutcomeSucceeded:
		c.logger.Info("calcom: booking created",
			"status", resp.StatusCode,
			"start", payload.Start,
		)
	default:
		c.logger.Warn("calcom: booking not created",
			"status", resp.StatusCode,
			"outcome", string(outcome.Status),
			"detail", outcome.Detail,
		)
	}
	return outcome
}

func (c *Client) upstreamFailure(span trace.Span, detail string) appointment.Outcome {
	span.SetAttributes(attribute.String("calcom.outcome", string(appointment.OutcomeUpstreamError)))
	c.logger.Error("calcom: request failed", "detail", detail)
	return appointment.Outcome{Status: appointment.OutcomeUpstreamError, Detail: detail}
}
