package appointment

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Fingerprint derives the dedup key for a validated request. Cosmetically
// different submissions of the same logical booking (phone punctuation,
// name casing) collapse to the same key because the inputs are already
// normalized: lowercased name, E.164 phone, UTC instant.
func Fingerprint(req ValidRequest) string {
	canonical := strings.ToLower(req.PatientName) + "|" +
		req.Phone.E164() + "|" +
		req.Start.UTC().Format(time.RFC3339)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
