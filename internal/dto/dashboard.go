package dto

import (
	"time"

	"github.com/noah-isme/study-planner/internal/urgency"
)

// DashboardResponse is the live dashboard payload.
type DashboardResponse struct {
	GeneratedAt time.Time            `json:"generated_at"`
	FetchedAt   time.Time            `json:"fetched_at"`
	Stale       bool                 `json:"stale"`
	Stats       DashboardStats       `json:"stats"`
	Tiers       map[urgency.Tier]int `json:"tiers"`
	Upcoming    []UpcomingDeadline   `json:"upcoming"`
	Subjects    []SubjectCard        `json:"subjects"`
}

// DashboardStats are the headline counters.
type DashboardStats struct {
	Subjects     int `json:"subjects"`
	Assessments  int `json:"assessments"`
	WithDeadline int `json:"with_deadline"`
	Urgent       int `json:"urgent"`
	DueThisWeek  int `json:"due_this_week"`
}

// UpcomingDeadline is one ranked, dated assessment.
type UpcomingDeadline struct {
	AssessmentID int        `json:"assessment_id"`
	Title        string     `json:"title"`
	SubjectID    int        `json:"subject_id"`
	SubjectName  string     `json:"subject_name"`
	Deadline     *time.Time `json:"deadline"`
	Badge        string     `json:"badge"`
	Label        string     `json:"label"`
	urgency.Annotation
}

// SubjectCard summarises a subject on the dashboard.
type SubjectCard struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Assessments int       `json:"assessments"`
	CreatedAt   time.Time `json:"created_at"`
}
