package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner/internal/dto"
	"github.com/noah-isme/study-planner/internal/models"
	"github.com/noah-isme/study-planner/internal/urgency"
	appErrors "github.com/noah-isme/study-planner/pkg/errors"
)

const unknownSubject = "N/A"

type assessmentRecords interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	ListAssessments(ctx context.Context) ([]models.Assessment, error)
	CreateAssessment(ctx context.Context, in models.AssessmentInput) (*models.Assessment, error)
	UpdateAssessment(ctx context.Context, id int, in models.AssessmentInput) (*models.Assessment, error)
	DeleteAssessment(ctx context.Context, id int) error
}

// AssessmentService validates assessment changes and lists assessments by urgency.
type AssessmentService struct {
	records   assessmentRecords
	notifier  changeNotifier
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssessmentService constructs an AssessmentService. notifier may be nil.
func NewAssessmentService(records assessmentRecords, notifier changeNotifier, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{records: records, notifier: notifier, validator: validate, logger: logger, now: time.Now}
}

// List returns every assessment annotated with its subject name and countdown, most
// pressing first.
func (s *AssessmentService) List(ctx context.Context) ([]dto.AssessmentView, error) {
	subjects, assessments, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	names := subjectNames(subjects)
	ranked := urgency.Rank(s.now(), assessments, models.DeadlineOf)
	views := make([]dto.AssessmentView, 0, len(ranked))
	for _, entry := range ranked {
		views = append(views, dto.AssessmentView{
			Assessment:  entry.Record,
			SubjectName: lookupName(names, entry.Record.SubjectID),
			Annotation:  entry.Annotation,
		})
	}
	return views, nil
}

// Create validates and stores a new assessment.
func (s *AssessmentService) Create(ctx context.Context, in models.AssessmentInput) (*models.Assessment, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	assessment, err := s.records.CreateAssessment(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("assessment created", zap.Int("assessment_id", assessment.ID), zap.Int("subject_id", in.SubjectID))
	s.changed()
	return assessment, nil
}

// Update validates and replaces an assessment.
func (s *AssessmentService) Update(ctx context.Context, id int, in models.AssessmentInput) (*models.Assessment, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid assessment id")
	}
	in, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	assessment, err := s.records.UpdateAssessment(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("assessment updated", zap.Int("assessment_id", id))
	s.changed()
	return assessment, nil
}

// Delete removes an assessment.
func (s *AssessmentService) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "invalid assessment id")
	}
	if err := s.records.DeleteAssessment(ctx, id); err != nil {
		return err
	}
	s.logger.Info("assessment deleted", zap.Int("assessment_id", id))
	s.changed()
	return nil
}

func (s *AssessmentService) load(ctx context.Context) ([]models.Subject, []models.Assessment, error) {
	subjects, err := s.records.ListSubjects(ctx)
	if err != nil {
		return nil, nil, err
	}
	assessments, err := s.records.ListAssessments(ctx)
	if err != nil {
		return nil, nil, err
	}
	return subjects, assessments, nil
}

func (s *AssessmentService) prepare(ctx context.Context, in models.AssessmentInput) (models.AssessmentInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.StudyContent = strings.TrimSpace(in.StudyContent)
	in.Attachments = cleanList(in.Attachments)
	in.References = cleanList(in.References)

	if err := s.validator.Struct(in); err != nil {
		return in, validationError(err, "invalid assessment payload")
	}
	if in.Deadline != nil {
		deadline := in.Deadline.UTC()
		if deadline.Before(s.now()) {
			return in, appErrors.Clone(appErrors.ErrValidation, "deadline cannot be in the past")
		}
		in.Deadline = &deadline
	}

	subjects, err := s.records.ListSubjects(ctx)
	if err != nil {
		return in, err
	}
	if !containsSubject(subjects, in.SubjectID) {
		return in, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return in, nil
}

func (s *AssessmentService) changed() {
	if s.notifier != nil {
		s.notifier.NotifyChange()
	}
}

func subjectNames(subjects []models.Subject) map[int]string {
	names := make(map[int]string, len(subjects))
	for _, subject := range subjects {
		names[subject.ID] = subject.Name
	}
	return names
}

// lookupName resolves a subject id, degrading to a placeholder when the subject is unknown.
func lookupName(names map[int]string, id int) string {
	if name, ok := names[id]; ok {
		return name
	}
	return unknownSubject
}
