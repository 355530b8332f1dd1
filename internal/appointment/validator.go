package appointment

import (
	"errors"
	"strings"
	"time"

	"github.com/thomas7124/aidentalbackend/internal/phone"
)

var (
	// ErrMissingFields indicates one or more required payload fields were absent.
	ErrMissingFields = errors.New("appointment: missing required fields")
	// ErrInvalidPhone indicates the phone number is not a valid NANP number.
	ErrInvalidPhone = errors.New("appointment: invalid phone number")
	// ErrInvalidDateTime indicates the preferred date/time does not resolve to
	// a real calendar instant.
	ErrInvalidDateTime = errors.New("appointment: invalid date or time")
)

// civilLayout parses "YYYY-MM-DDTHH:MM±HH:MM". time.Parse rejects impossible
// dates like Feb 30, which is exactly the check we need.
const civilLayout = "2006-01-02T15:04-07:00"

// Validator checks an inbound Request and resolves it to a ValidRequest.
// The offset is a fixed civil UTC offset (e.g. "-05:00"), deliberately not
// DST-aware: the voice agent quotes wall-clock times in one zone.
type Validator struct {
	offset string
}

// NewValidator creates a Validator using the given fixed UTC offset.
func NewValidator(offset string) *Validator {
	if offset == "" {
		offset = "-05:00"
	}
	return &Validator{offset: offset}
}

// Validate runs the ordered checks, short-circuiting on the first failure:
// required fields, emergency bypass, phone normalization, date/time parsing.
// An emergency request returns (nil, true, nil) and must never be submitted
// upstream; it is surfaced for manual follow-up instead.
func (v *Validator) Validate(req Request) (*ValidRequest, bool, error) {
	name := strings.TrimSpace(req.PatientName)
	reason := strings.TrimSpace(req.AppointmentReason)
	if name == "" || strings.TrimSpace(req.PhoneNumber) == "" || reason == "" ||
		strings.TrimSpace(req.PreferredDate) == "" || strings.TrimSpace(req.PreferredTime) == "" {
		return nil, false, ErrMissingFields
	}

	if req.IsEmergency {
		return nil, true, nil
	}

	number, ok := phone.Normalize(req.PhoneNumber)
	if !ok {
		return nil, false, ErrInvalidPhone
	}

	start, err := time.Parse(civilLayout,
		strings.TrimSpace(req.PreferredDate)+"T"+strings.TrimSpace(req.PreferredTime)+v.offset)
	if err != nil {
		return nil, false, ErrInvalidDateTime
	}

	return &ValidRequest{
		PatientName: name,
		Phone:       number,
		Reason:      reason,
		Start:       start,
	}, false, nil
}
