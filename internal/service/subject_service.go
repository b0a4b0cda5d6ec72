package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner/internal/models"
	appErrors "github.com/noah-isme/study-planner/pkg/errors"
)

type subjectRecords interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	CreateSubject(ctx context.Context, in models.SubjectInput) (*models.Subject, error)
	UpdateSubject(ctx context.Context, id int, in models.SubjectInput) (*models.Subject, error)
	DeleteSubject(ctx context.Context, id int) error
}

// SubjectService validates subject changes locally before sending them to the records service.
type SubjectService struct {
	records   subjectRecords
	notifier  changeNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService. notifier may be nil.
func NewSubjectService(records subjectRecords, notifier changeNotifier, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{records: records, notifier: notifier, validator: validate, logger: logger}
}

// List returns the user's subjects in the order the records service keeps them.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, error) {
	return s.records.ListSubjects(ctx)
}

// Create validates and stores a new subject. Names are unique per user, ignoring case.
func (s *SubjectService) Create(ctx context.Context, in models.SubjectInput) (*models.Subject, error) {
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	existing, err := s.records.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	if duplicateName(existing, in.Name, 0) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a subject with this name already exists")
	}

	subject, err := s.records.CreateSubject(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("subject created", zap.Int("subject_id", subject.ID))
	s.changed()
	return subject, nil
}

// Update validates and replaces a subject.
func (s *SubjectService) Update(ctx context.Context, id int, in models.SubjectInput) (*models.Subject, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid subject id")
	}
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	existing, err := s.records.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	if !containsSubject(existing, id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	if duplicateName(existing, in.Name, id) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a subject with this name already exists")
	}

	subject, err := s.records.UpdateSubject(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("subject updated", zap.Int("subject_id", id))
	s.changed()
	return subject, nil
}

// Delete removes a subject. The records service refuses while assessments still use it.
func (s *SubjectService) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "invalid subject id")
	}
	if err := s.records.DeleteSubject(ctx, id); err != nil {
		return err
	}
	s.logger.Info("subject deleted", zap.Int("subject_id", id))
	s.changed()
	return nil
}

func (s *SubjectService) normalize(in models.SubjectInput) (models.SubjectInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validator.Struct(in); err != nil {
		return in, validationError(err, "invalid subject payload")
	}
	return in, nil
}

func (s *SubjectService) changed() {
	if s.notifier != nil {
		s.notifier.NotifyChange()
	}
}

func duplicateName(subjects []models.Subject, name string, exceptID int) bool {
	for _, subject := range subjects {
		if subject.ID != exceptID && strings.EqualFold(strings.TrimSpace(subject.Name), name) {
			return true
		}
	}
	return false
}

func containsSubject(subjects []models.Subject, id int) bool {
	for _, subject := range subjects {
		if subject.ID == id {
			return true
		}
	}
	return false
}
