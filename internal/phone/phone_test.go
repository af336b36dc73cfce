package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		countryCode string
		want        string
	}{
		{
			name:        "bare 10-digit number gets country code",
			raw:         "9876543210",
			countryCode: "91",
			want:        "919876543210",
		},
		{
			name:        "formatted 10-digit number gets country code",
			raw:         "(987) 654-3210",
			countryCode: "91",
			want:        "919876543210",
		},
		{
			name:        "number with country code passes through",
			raw:         "+91 98765 43210",
			countryCode: "91",
			want:        "919876543210",
		},
		{
			name:        "12-digit number unchanged",
			raw:         "449876543210",
			countryCode: "91",
			want:        "449876543210",
		},
		{
			name:        "short number passes through without prefix",
			raw:         "12345",
			countryCode: "91",
			want:        "12345",
		},
		{
			name:        "empty input yields empty output",
			raw:         "",
			countryCode: "91",
			want:        "",
		},
		{
			name:        "non-digit input yields empty output",
			raw:         "n/a",
			countryCode: "91",
			want:        "",
		},
		{
			name:        "configured country code is respected",
			raw:         "5551234567",
			countryCode: "1",
			want:        "15551234567",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, tt.countryCode))
		})
	}
}

func TestNormalizeProducesDigitsOnly(t *testing.T) {
	inputs := []string{"+91 98765-43210", "98 76 54 32 10", "tel:9876543210"}
	for _, in := range inputs {
		got := Normalize(in, "91")
		for _, r := range got {
			assert.True(t, r >= '0' && r <= '9', "normalize(%q) produced non-digit %q", in, r)
		}
	}
}
