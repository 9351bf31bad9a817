package models

import "time"

// ProgressUpdate is one observation of a skill.
//
// RawScore and RawTarget are deliberately untyped: they hold whatever the
// storage layer produced (a number, a numeric string, a percent-suffixed
// string, or nil). Adapters must resolve alternate field names before
// building a ProgressUpdate; chart rendering only ever sees this shape.
type ProgressUpdate struct {
	RecordedAt time.Time `json:"recorded_at"`
	RawScore   any       `json:"raw_score"`
	RawTarget  any       `json:"raw_target"`
	Notes      string    `json:"notes,omitempty"`
}
