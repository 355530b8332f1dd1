package appointment

import "encoding/json"

// OutcomeStatus enumerates the closed set of terminal booking outcomes.
type OutcomeStatus string

const (
	// OutcomeSucceeded means the upstream calendar confirmed the booking.
	OutcomeSucceeded OutcomeStatus = "succeeded"
	// OutcomeSlotUnavailable means the requested time is no longer bookable.
	OutcomeSlotUnavailable OutcomeStatus = "slot_unavailable"
	// OutcomeUpstreamError covers transport failures, non-2xx statuses, and
	// contract violations such as a success response without a booking id.
	OutcomeUpstreamError OutcomeStatus = "upstream_error"
	// OutcomeAlreadyInFlight means an identical request was submitted within
	// the dedup window.
	OutcomeAlreadyInFlight OutcomeStatus = "already_in_flight"
)

// Outcome is the classified result of one booking submission. It lives only
// for the duration of the request that produced it.
type Outcome struct {
	Status OutcomeStatus
	// Booking is the raw upstream booking record, set only on success.
	Booking json.RawMessage
	// Detail carries diagnostics for failed submissions (raw upstream body
	// or transport error text). Never shown to the voice caller verbatim.
	Detail string
}
