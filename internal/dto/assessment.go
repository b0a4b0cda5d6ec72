package dto

import (
	"github.com/noah-isme/study-planner/internal/models"
	"github.com/noah-isme/study-planner/internal/urgency"
)

// AssessmentView is an assessment annotated with its subject and countdown.
type AssessmentView struct {
	models.Assessment
	SubjectName string `json:"subject_name"`
	urgency.Annotation
}
