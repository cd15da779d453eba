package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMicrosToUSD(t *testing.T) {
	tests := []struct {
		name     string
		micros   int64
		expected float64
	}{
		{name: "zero micros", micros: 0, expected: 0},
		{name: "um dólar", micros: 1_000_000, expected: 1},
		{name: "arredonda centavos", micros: 120_456_789, expected: 120.46},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MicrosToUSD(tt.micros))
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(10, 0))
	assert.Equal(t, 25.0, Percent(1, 4))
	assert.Equal(t, 33.33, Percent(1, 3))
}

func TestGeneratePrefixedID(t *testing.T) {
	id := GeneratePrefixedID("rec")

	assert.Regexp(t, `^rec-[A-Za-z0-9]{10}$`, id)
	assert.NotEqual(t, id, GeneratePrefixedID("rec"))
}
