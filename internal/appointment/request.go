// Package appointment implements the booking request pipeline: payload
// validation, phone and time normalization, dedup fingerprinting, and the
// retry-suppression guard that keeps a chatty voice channel from
// double-booking the same patient.
package appointment

import (
	"time"

	"github.com/thomas7124/aidentalbackend/internal/phone"
)

// Request is the inbound webhook payload from the voice assistant. It has no
// identity beyond the request lifetime and is never persisted.
type Request struct {
	PatientName       string `json:"patient_name"`
	PhoneNumber       string `json:"phone_number"`
	AppointmentReason string `json:"appointment_reason"`
	PreferredDate     string `json:"preferred_date"` // YYYY-MM-DD
	PreferredTime     string `json:"preferred_time"` // HH:MM, 24h
	IsEmergency       bool   `json:"is_emergency"`
}

// ValidRequest is the immutable result of validation: trimmed name, the
// normalized phone number, and the preferred date/time resolved to an
// absolute instant.
type ValidRequest struct {
	PatientName string
	Phone       phone.Number
	Reason      string
	Start       time.Time
}
