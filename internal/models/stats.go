package models

import "time"

// RecordStats are the counters reported by the records service.
type RecordStats struct {
	TotalSubjects    int       `json:"total_subjects"`
	TotalAssessments int       `json:"total_assessments"`
	WithDeadline     int       `json:"with_deadline"`
	DueSoon          int       `json:"due_soon"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Snapshot is the record set the dashboard is computed from.
type Snapshot struct {
	Subjects    []Subject    `json:"subjects"`
	Assessments []Assessment `json:"assessments"`
	FetchedAt   time.Time    `json:"fetched_at"`
}
