package progress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		expected string
	}{
		{"seconds", 45, "45s"},
		{"minutes", 125, "2m 5s"},
		{"hours", 3725, "1h 2m 5s"},
		{"exact hour", 3600, "1h 0m 0s"},
		{"fraction floored", 59.9, "59s"},
		{"minute boundary", 60.4, "1m 0s"},
		{"sub second", 0.5, "0s"},
		{"zero", 0, Calculating},
		{"negative", -12, Calculating},
		{"nan", math.NaN(), Calculating},
		{"positive infinity", math.Inf(1), Calculating},
		{"negative infinity", math.Inf(-1), Calculating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTime(tt.seconds))
		})
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.00 KB", FormatBytes(1024))
	assert.Equal(t, "1.50 MB", FormatBytes(1536*1024))
	assert.Equal(t, "2.00 GB", FormatBytes(2*1024*1024*1024))
}

func TestFormatSpeed(t *testing.T) {
	assert.Equal(t, "0 B/s", FormatSpeed(0))
	assert.Equal(t, "0 B/s", FormatSpeed(math.NaN()))
	assert.Equal(t, "2.00 KB/s", FormatSpeed(2048))
}
