package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── ProgressUpdate ──

func TestProgressUpdateKeepsLooseScores(t *testing.T) {
	input := `[
		{"recorded_at": "2024-01-01T00:00:00Z", "raw_score": 40, "raw_target": "85%"},
		{"recorded_at": "2024-02-01T00:00:00Z", "raw_score": "0.9", "raw_target": null, "notes": "self-corrected"}
	]`

	dec := json.NewDecoder(strings.NewReader(input))
	dec.UseNumber()
	var updates []ProgressUpdate
	require.NoError(t, dec.Decode(&updates))
	require.Len(t, updates, 2)

	assert.Equal(t, json.Number("40"), updates[0].RawScore)
	assert.Equal(t, "85%", updates[0].RawTarget)
	assert.Equal(t, "0.9", updates[1].RawScore)
	assert.Nil(t, updates[1].RawTarget)
	assert.Equal(t, "self-corrected", updates[1].Notes)
	assert.True(t, updates[1].RecordedAt.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestProgressUpdateOmitsEmptyNotes(t *testing.T) {
	data, err := json.Marshal(ProgressUpdate{RawScore: 50})
	require.NoError(t, err)

	assert.NotContains(t, string(data), "notes")
	assert.Contains(t, string(data), `"raw_target":null`)
}

// ── ProgressReport ──

func TestProgressReportJSONFields(t *testing.T) {
	r := ProgressReport{
		ClientName: "Sam",
		Skills: []SkillProgress{{
			Skill:   Skill{ID: "artic-r", Name: "Articulation /r/"},
			Updates: []ProgressUpdate{{RawScore: 40}},
		}},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	for _, key := range []string{`"client_name":"Sam"`, `"skills":[`, `"skill":{"id":"artic-r"`, `"updates":[`} {
		assert.Contains(t, string(data), key)
	}
}
