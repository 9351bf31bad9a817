// Package records adapts loosely shaped progress records into
// models.ProgressUpdate.
//
// Progress rows arrive from several sources (old exports, form posts, the
// API) and each spells its fields a little differently. This package is the
// single place those spellings are resolved; chart rendering only ever sees
// the canonical struct.
package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/seenimoa/skillchart/pkg/models"
	"github.com/seenimoa/skillchart/pkg/utils"
)

// Key aliases in priority order. The first present, non-nil key wins.
var (
	DateKeys   = []string{"recorded_at", "recordedAt", "date", "update_date", "created_at", "timestamp"}
	ScoreKeys  = []string{"raw_score", "rawScore", "score", "value", "progress", "percentage"}
	TargetKeys = []string{"raw_target", "rawTarget", "target", "goal", "target_score"}
	NotesKeys  = []string{"notes", "note", "comments", "comment"}
)

// FromMap builds a ProgressUpdate from a record with any of the known key
// spellings. Missing fields become nil (scores) or zero (date, notes).
func FromMap(rec map[string]any) models.ProgressUpdate {
	var u models.ProgressUpdate

	if v, ok := lookup(rec, DateKeys); ok {
		if t, ok := utils.ToTime(v); ok {
			u.RecordedAt = t
		}
	}
	if v, ok := lookup(rec, ScoreKeys); ok {
		u.RawScore = v
	}
	if v, ok := lookup(rec, TargetKeys); ok {
		u.RawTarget = v
	}
	if v, ok := lookup(rec, NotesKeys); ok {
		switch n := v.(type) {
		case string:
			u.Notes = n
		default:
			u.Notes = fmt.Sprint(n)
		}
	}
	return u
}

// FromMaps adapts every record and returns them in time order. Records with
// equal (or missing) dates keep their input order.
func FromMaps(recs []map[string]any) []models.ProgressUpdate {
	updates := make([]models.ProgressUpdate, len(recs))
	for i, r := range recs {
		updates[i] = FromMap(r)
	}
	SortByDate(updates)
	return updates
}

// SortByDate stable-sorts updates oldest first.
func SortByDate(updates []models.ProgressUpdate) {
	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].RecordedAt.Before(updates[j].RecordedAt)
	})
}

// Decode reads a JSON array of records, or an object with an "updates"
// array, and adapts it. Numbers are kept as json.Number so integer and
// string scores survive untouched.
func Decode(r io.Reader) ([]models.ProgressUpdate, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	recs, err := decodeRecords(data)
	if err != nil {
		return nil, err
	}
	return FromMaps(recs), nil
}

func decodeRecords(data []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '{' {
		var wrapper struct {
			Updates []map[string]any `json:"updates"`
		}
		if err := dec.Decode(&wrapper); err != nil {
			return nil, fmt.Errorf("decoding records: %w", err)
		}
		return wrapper.Updates, nil
	}

	var recs []map[string]any
	if err := dec.Decode(&recs); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return recs, nil
}

func lookup(rec map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v, true
		}
	}
	// Fall back to a case-insensitive match for hand-edited exports.
	recKeys := make([]string, 0, len(rec))
	for rk := range rec {
		recKeys = append(recKeys, rk)
	}
	sort.Strings(recKeys)
	for _, k := range keys {
		for _, rk := range recKeys {
			if v := rec[rk]; v != nil && strings.EqualFold(rk, k) {
				return v, true
			}
		}
	}
	return nil, false
}
