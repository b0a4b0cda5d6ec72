package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/study-planner/internal/models"
	"github.com/noah-isme/study-planner/pkg/jobs"
)

type transitionStore interface {
	Insert(ctx context.Context, t *models.Transition) error
	ListRecent(ctx context.Context, limit int) ([]models.Transition, error)
}

// NotificationService consumes tier transition jobs and optionally keeps a log of them.
type NotificationService struct {
	store   transitionStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service. store may be nil when the transition log
// is disabled.
func NewNotificationService(store transitionStore, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, metrics: metrics, logger: logger}
}

// Handle processes a queue job. Returning an error makes the queue retry it.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != TransitionJobType {
		s.logger.Warn("unknown job type", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	transition, ok := job.Payload.(models.Transition)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}

	// retries must not count or log the same transition twice
	if job.Attempt == 0 {
		s.logger.Info("deadline tier changed",
			zap.Int("assessment_id", transition.AssessmentID),
			zap.String("title", transition.Title),
			zap.String("subject", transition.SubjectName),
			zap.String("from", string(transition.FromTier)),
			zap.String("to", string(transition.ToTier)),
			zap.Timep("deadline", transition.Deadline),
		)
		s.metrics.RecordTransition(transition.ToTier)
	}

	if s.store == nil {
		return nil
	}
	return s.store.Insert(ctx, &transition)
}

// Enabled reports whether transitions are persisted.
func (s *NotificationService) Enabled() bool {
	return s != nil && s.store != nil
}

// Recent lists persisted transitions, newest first.
func (s *NotificationService) Recent(ctx context.Context, limit int) ([]models.Transition, error) {
	if !s.Enabled() {
		return []models.Transition{}, nil
	}
	transitions, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if transitions == nil {
		transitions = []models.Transition{}
	}
	return transitions, nil
}
