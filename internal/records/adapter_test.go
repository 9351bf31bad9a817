package records

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/skillchart/internal/chart"
)

func TestFromMap_Aliases(t *testing.T) {
	want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rec  map[string]any
	}{
		{"canonical", map[string]any{"recorded_at": "2024-02-01", "raw_score": 70, "raw_target": 80, "notes": "ok"}},
		{"short", map[string]any{"date": "2024-02-01", "score": 70, "target": 80, "note": "ok"}},
		{"legacy", map[string]any{"update_date": "02/01/2024", "progress": 70, "goal": 80, "comments": "ok"}},
		{"camel", map[string]any{"recordedAt": want, "rawScore": 70, "rawTarget": 80, "comment": "ok"}},
		{"mixed case", map[string]any{"Date": "2024-02-01", "SCORE": 70, "Target": 80, "Notes": "ok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := FromMap(tt.rec)
			assert.True(t, u.RecordedAt.Equal(want), "got %v", u.RecordedAt)
			assert.Equal(t, 70, u.RawScore)
			assert.Equal(t, 80, u.RawTarget)
			assert.Equal(t, "ok", u.Notes)
		})
	}
}

func TestFromMap_PriorityAndNil(t *testing.T) {
	u := FromMap(map[string]any{
		"raw_score": nil,
		"score":     "55%",
		"value":     99,
		"target":    nil,
	})
	assert.Equal(t, "55%", u.RawScore)
	assert.Nil(t, u.RawTarget)
	assert.True(t, u.RecordedAt.IsZero())
	assert.Empty(t, u.Notes)
}

func TestFromMap_NonStringNotes(t *testing.T) {
	u := FromMap(map[string]any{"notes": 42})
	assert.Equal(t, "42", u.Notes)
}

func TestFromMap_UnparseableDate(t *testing.T) {
	u := FromMap(map[string]any{"date": "last tuesday", "score": 10})
	assert.True(t, u.RecordedAt.IsZero())
	assert.Equal(t, 10, u.RawScore)
}

func TestDecode_Array(t *testing.T) {
	input := `[
		{"date": "2024-03-01", "score": 60, "target": "85%"},
		{"date": "2024-01-01", "score": "0.4", "target": 80},
		{"date": "2024-02-01", "score": null}
	]`

	updates, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, updates, 3)

	// Sorted oldest first.
	assert.Equal(t, "2024-01-01", updates[0].RecordedAt.Format("2006-01-02"))
	assert.Equal(t, "2024-02-01", updates[1].RecordedAt.Format("2006-01-02"))
	assert.Equal(t, "2024-03-01", updates[2].RecordedAt.Format("2006-01-02"))

	assert.Equal(t, "0.4", updates[0].RawScore)
	assert.Nil(t, updates[1].RawScore)
	assert.Equal(t, json.Number("60"), updates[2].RawScore)

	// Numbers decoded as json.Number still count as native numbers.
	pct, ok := chart.Normalize(updates[2].RawScore, chart.NumericOnly)
	assert.True(t, ok)
	assert.Equal(t, 60.0, pct)
}

func TestDecode_Wrapper(t *testing.T) {
	updates, err := Decode(strings.NewReader(`{"updates": [{"recorded_at": "2024-06-01T09:00:00Z", "raw_score": "0.9"}]}`))
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "0.9", updates[0].RawScore)
}

func TestDecode_EmptyAndInvalid(t *testing.T) {
	updates, err := Decode(strings.NewReader("  "))
	require.NoError(t, err)
	assert.Empty(t, updates)

	_, err = Decode(strings.NewReader(`[{"score": }]`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`"just a string"`))
	assert.Error(t, err)
}

func TestSortByDate_Stable(t *testing.T) {
	updates := FromMaps([]map[string]any{
		{"score": 1, "notes": "a"},
		{"score": 2, "notes": "b"},
		{"date": "2024-01-01", "score": 3, "notes": "c"},
	})
	// Zero dates sort first and keep their relative order.
	assert.Equal(t, "a", updates[0].Notes)
	assert.Equal(t, "b", updates[1].Notes)
	assert.Equal(t, "c", updates[2].Notes)
}
