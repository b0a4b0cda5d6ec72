package models

import (
	"time"

	"github.com/noah-isme/study-planner/internal/urgency"
)

// Transition records an assessment moving into a more pressing tier.
type Transition struct {
	ID           string       `db:"id" json:"id"`
	AssessmentID int          `db:"assessment_id" json:"assessment_id"`
	Title        string       `db:"title" json:"title"`
	SubjectName  string       `db:"subject_name" json:"subject_name"`
	FromTier     urgency.Tier `db:"from_tier" json:"from_tier"`
	ToTier       urgency.Tier `db:"to_tier" json:"to_tier"`
	Deadline     *time.Time   `db:"deadline" json:"deadline,omitempty"`
	ObservedAt   time.Time    `db:"observed_at" json:"observed_at"`
}
