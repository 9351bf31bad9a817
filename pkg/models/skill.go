// Package models defines the core data structures used throughout skillchart.
package models

import "time"

// Skill is a named, trackable therapy objective.
type Skill struct {
	ID          string    `json:"id"`          // e.g., "articulation-r"
	Name        string    `json:"name"`        // e.g., "Articulation: /r/ in initial position"
	Description string    `json:"description"` // free text shown in reports
	CreatedAt   time.Time `json:"created_at"`
}

// SkillProgress pairs a skill with its time-ordered observations.
type SkillProgress struct {
	Skill   Skill            `json:"skill"`
	Updates []ProgressUpdate `json:"updates"`
}

// ProgressReport is everything the report exporter needs for one client.
type ProgressReport struct {
	ClientName  string          `json:"client_name"`
	Clinician   string          `json:"clinician"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Skills      []SkillProgress `json:"skills"`
}
