package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1024", 1024},
		{"0", 0},
		{"16B", 16},
		{"64kb", 64 * 1000},
		{"64KB", 64 * 1000},
		{"5MB", 5 * 1000 * 1000},
		{"2GB", 2 * 1000 * 1000 * 1000},
		{"64KiB", 64 * 1024},
		{"64ki", 64 * 1024},
		{"16MiB", 16 * 1024 * 1024},
		{"16mi", 16 * 1024 * 1024},
		{"1GiB", 1024 * 1024 * 1024},
		{" 512 ", 512},
		{"3.5MB", 3}, // fractions unsupported, parsing stops at the dot
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSizeErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "MB", "abc", "12XB", "-5"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSize(in)
			assert.Error(t, err)
		})
	}
}
