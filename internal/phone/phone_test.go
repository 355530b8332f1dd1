package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCanonicalizesFormatting(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"parens and spaces", "(657) 239-6233"},
		{"dots", "657.239.6233"},
		{"bare digits", "6572396233"},
		{"leading country code", "1-657-239-6233"},
		{"plus one", "+1 657 239 6233"},
		{"words mixed in", "call 657 239 6233 please"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := Normalize(tt.raw)
			require.True(t, ok)
			assert.Equal(t, "+16572396233", n.E164())
			assert.Equal(t, "657-239-6233", n.Dashed())
		})
	}
}

func TestNormalizeRejectsBadDigitCounts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no digits", "call me"},
		{"too short", "239-6233"},
		{"nine digits", "657239623"},
		{"eleven without leading one", "26572396233"},
		{"twelve digits", "+44 20 7946 0958"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Normalize(tt.raw)
			assert.False(t, ok)
			n, _ := Normalize(tt.raw)
			assert.Empty(t, n.E164())
		})
	}
}
