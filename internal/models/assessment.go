package models

import "time"

// Assessment is an exam or assignment belonging to a subject. Deadline is optional.
type Assessment struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	StudyContent string     `json:"study_content"`
	Attachments  []string   `json:"attachments"`
	References   []string   `json:"references"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	SubjectID    int        `json:"subject_id"`
	UserID       int        `json:"user_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DeadlineOf returns the assessment deadline, nil when unset.
func DeadlineOf(a Assessment) *time.Time {
	return a.Deadline
}

// AssessmentInput is the payload for creating or updating an assessment.
type AssessmentInput struct {
	Title        string     `json:"title" validate:"required,min=3"`
	StudyContent string     `json:"study_content" validate:"required,min=5"`
	Attachments  []string   `json:"attachments"`
	References   []string   `json:"references"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	SubjectID    int        `json:"subject_id" validate:"required,gt=0"`
}
