// Package chart renders skill progress charts as self-contained SVG.
//
// Rendering is a pure three-stage pipeline: Normalize turns loosely typed
// scores into percentages, Layout maps them onto a fixed canvas, and
// Serialize writes the SVG. Nothing is cached or shared between calls, so
// every function here is safe for concurrent use.
package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Mode selects how permissive score parsing is.
type Mode int

const (
	// NumericPreferred accepts native numbers and numeric strings,
	// with or without a trailing "%".
	NumericPreferred Mode = iota
	// NumericOnly accepts native numbers only. Every string is unknown.
	NumericOnly
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case NumericPreferred:
		return "numeric_preferred"
	case NumericOnly:
		return "numeric_only"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name as used in config files, flags and API bodies.
// The empty string selects NumericPreferred.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "numeric_preferred", "numeric-preferred", "preferred":
		return NumericPreferred, nil
	case "numeric_only", "numeric-only", "strict":
		return NumericOnly, nil
	default:
		return 0, fmt.Errorf("unknown chart mode %q (want numeric_preferred or numeric_only)", s)
	}
}

// Normalize converts a raw score into a percentage in [0,100].
// ok is false when the value is unknown: nil, empty, non-numeric, not
// finite, or a string under NumericOnly.
//
// Values in (0,1] are read as fractions and scaled by 100. Zero stays 0.
func Normalize(raw any, mode Mode) (pct float64, ok bool) {
	v, ok := numericValue(raw, mode)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v > 0 && v <= 1 {
		v *= 100
	}
	return clampPct(v), true
}

func numericValue(raw any, mode Mode) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		if mode == NumericOnly {
			return 0, false
		}
		return parseNumericString(v)
	case []byte:
		if mode == NumericOnly {
			return 0, false
		}
		return parseNumericString(string(v))
	default:
		return 0, false
	}
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// FormatPercent renders a percentage with at most one decimal place,
// dropping a trailing ".0" (85 → "85", 87.5 → "87.5").
func FormatPercent(p float64) string {
	s := strconv.FormatFloat(p, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}
