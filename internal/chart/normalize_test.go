package chart

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		mode   Mode
		want   float64
		wantOK bool
	}{
		{"fraction", 0.5, NumericPreferred, 50, true},
		{"fraction numeric only", 0.5, NumericOnly, 50, true},
		{"percent", 50, NumericPreferred, 50, true},
		{"percent numeric only", 50, NumericOnly, 50, true},
		{"clamped high", 150, NumericPreferred, 100, true},
		{"clamped high numeric only", 150.0, NumericOnly, 100, true},
		{"clamped low", -5, NumericPreferred, 0, true},
		{"clamped low numeric only", int64(-5), NumericOnly, 0, true},
		{"zero is not a fraction", 0, NumericPreferred, 0, true},
		{"zero numeric only", 0.0, NumericOnly, 0, true},
		{"one is a fraction", 1, NumericPreferred, 100, true},
		{"just above one", 1.5, NumericPreferred, 1.5, true},
		{"percent string", "75%", NumericPreferred, 75, true},
		{"percent string numeric only", "75%", NumericOnly, 0, false},
		{"digit string numeric only", "75", NumericOnly, 0, false},
		{"plain string", "75", NumericPreferred, 75, true},
		{"fraction string", "0.9", NumericPreferred, 90, true},
		{"padded percent string", "  42 % ", NumericPreferred, 42, true},
		{"garbage", "abc", NumericPreferred, 0, false},
		{"garbage numeric only", "abc", NumericOnly, 0, false},
		{"empty string", "", NumericPreferred, 0, false},
		{"bare percent sign", "%", NumericPreferred, 0, false},
		{"nil", nil, NumericPreferred, 0, false},
		{"bool", true, NumericPreferred, 0, false},
		{"NaN", math.NaN(), NumericPreferred, 0, false},
		{"NaN string", "NaN", NumericPreferred, 0, false},
		{"infinity", math.Inf(1), NumericPreferred, 0, false},
		{"json number", json.Number("0.25"), NumericOnly, 25, true},
		{"bad json number", json.Number("x"), NumericPreferred, 0, false},
		{"uint8", uint8(80), NumericOnly, 80, true},
		{"float32", float32(0.5), NumericOnly, 50, true},
		{"bytes", []byte("60%"), NumericPreferred, 60, true},
		{"bytes numeric only", []byte("60"), NumericOnly, 0, false},
		{"struct", struct{}{}, NumericPreferred, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw, tt.mode)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", NumericPreferred},
		{"numeric_preferred", NumericPreferred},
		{"Numeric-Preferred", NumericPreferred},
		{"numeric_only", NumericOnly},
		{" strict ", NumericOnly},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMode("lenient")
	assert.Error(t, err)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "numeric_preferred", NumericPreferred.String())
	assert.Equal(t, "numeric_only", NumericOnly.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())

	for _, m := range []Mode{NumericPreferred, NumericOnly} {
		back, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, back)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "85", FormatPercent(85))
	assert.Equal(t, "0", FormatPercent(0))
	assert.Equal(t, "100", FormatPercent(100))
	assert.Equal(t, "87.5", FormatPercent(87.5))
	assert.Equal(t, "33.3", FormatPercent(100.0/3))
}
