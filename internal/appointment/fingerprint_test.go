package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintCollapsesCosmeticDifferences(t *testing.T) {
	v := NewValidator("-05:00")

	first := validPayload()
	second := validPayload()
	second.PhoneNumber = "+1 657.239.6233"
	second.PatientName = "  Jane Doe "

	a, _, err := v.Validate(first)
	require.NoError(t, err)
	b, _, err := v.Validate(second)
	require.NoError(t, err)

	assert.Equal(t, Fingerprint(*a), Fingerprint(*b))
}

func TestFingerprintDistinguishesLogicalRequests(t *testing.T) {
	v := NewValidator("-05:00")

	base, _, err := v.Validate(validPayload())
	require.NoError(t, err)

	otherTime := validPayload()
	otherTime.PreferredTime = "15:30"
	shifted, _, err := v.Validate(otherTime)
	require.NoError(t, err)

	otherPatient := validPayload()
	otherPatient.PatientName = "John Doe"
	renamed, _, err := v.Validate(otherPatient)
	require.NoError(t, err)

	assert.NotEqual(t, Fingerprint(*base), Fingerprint(*shifted))
	assert.NotEqual(t, Fingerprint(*base), Fingerprint(*renamed))
}
