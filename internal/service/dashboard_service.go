package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner/internal/dto"
	"github.com/noah-isme/study-planner/internal/models"
	"github.com/noah-isme/study-planner/internal/urgency"
	appErrors "github.com/noah-isme/study-planner/pkg/errors"
)

const (
	refreshFresh = "fresh"
	refreshStale = "stale"
	refreshEmpty = "empty"

	snapshotKeyPrefix = "study-planner:snapshot"
)

type dashboardRecords interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	ListAssessments(ctx context.Context) ([]models.Assessment, error)
	Stats(ctx context.Context) (*models.RecordStats, error)
}

type userScope interface {
	UserID() int
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	UpcomingLimit int
	SubjectLimit  int
	SnapshotTTL   time.Duration
}

// DashboardService loads the record set and composes dashboard payloads from it.
type DashboardService struct {
	records dashboardRecords
	cache   *CacheService
	metrics *MetricsService
	scope   userScope
	logger  *zap.Logger
	now     func() time.Time
	cfg     DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Records dashboardRecords
	Cache   *CacheService
	Metrics *MetricsService
	Scope   userScope
	Logger  *zap.Logger
	Config  DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 5
	}
	if cfg.SubjectLimit <= 0 {
		cfg.SubjectLimit = 4
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 24 * time.Hour
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		records: params.Records,
		cache:   params.Cache,
		metrics: params.Metrics,
		scope:   params.Scope,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
}

// Fetch loads subjects and assessments concurrently. When the records service cannot be
// reached the last cached snapshot is returned flagged stale, or an empty one when nothing
// was cached. Only an authoritative rejection of the session is returned as an error.
func (s *DashboardService) Fetch(ctx context.Context) (models.Snapshot, bool, error) {
	var (
		subjects    []models.Subject
		assessments []models.Assessment
	)
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		var err error
		subjects, err = s.records.ListSubjects(ctx)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		assessments, err = s.records.ListAssessments(ctx)
		return err
	})

	if err := p.Wait(); err != nil {
		if appErrors.Is(err, appErrors.ErrUnauthorized) {
			return models.Snapshot{}, false, err
		}
		s.logger.Warn("record fetch failed, serving fallback", zap.Error(err))
		return s.fallback(ctx), true, nil
	}

	snapshot := models.Snapshot{
		Subjects:    nonNilSubjects(subjects),
		Assessments: nonNilAssessments(assessments),
		FetchedAt:   s.now().UTC(),
	}
	if key, ok := s.snapshotKey(); ok {
		_ = s.cache.Set(ctx, key, snapshot, s.cfg.SnapshotTTL)
	}
	s.metrics.RecordRefresh(refreshFresh)
	return snapshot, false, nil
}

func (s *DashboardService) fallback(ctx context.Context) models.Snapshot {
	if key, ok := s.snapshotKey(); ok {
		var cached models.Snapshot
		// the request context may already be cancelled, the cache read gets its own budget
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if hit, _ := s.cache.Get(readCtx, key, &cached); hit {
			s.metrics.RecordRefresh(refreshStale)
			cached.Subjects = nonNilSubjects(cached.Subjects)
			cached.Assessments = nonNilAssessments(cached.Assessments)
			return cached
		}
	}
	s.metrics.RecordRefresh(refreshEmpty)
	return models.Snapshot{Subjects: []models.Subject{}, Assessments: []models.Assessment{}}
}

// Forget drops the cached snapshot of userID. It is registered to run when a session ends.
func (s *DashboardService) Forget(ctx context.Context, userID int) {
	key, ok := s.keyFor(userID)
	if !ok {
		return
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.Warn("failed to drop cached snapshot", zap.Int("user_id", userID), zap.Error(err))
	}
}

func (s *DashboardService) snapshotKey() (string, bool) {
	if s.scope == nil {
		return "", false
	}
	return s.keyFor(s.scope.UserID())
}

func (s *DashboardService) keyFor(userID int) (string, bool) {
	if !s.cache.Enabled() || userID == 0 {
		return "", false
	}
	return fmt.Sprintf("%s:%d", snapshotKeyPrefix, userID), true
}

// Build composes the dashboard for the reference instant ref. It does not touch the network.
func (s *DashboardService) Build(ref time.Time, snapshot models.Snapshot, stale bool) dto.DashboardResponse {
	names := subjectNames(snapshot.Subjects)
	ranked := urgency.Rank(ref, snapshot.Assessments, models.DeadlineOf)
	summary := urgency.Summarize(ranked)

	upcoming := make([]dto.UpcomingDeadline, 0, s.cfg.UpcomingLimit)
	for _, entry := range ranked {
		if len(upcoming) == s.cfg.UpcomingLimit {
			break
		}
		if entry.Remaining == nil {
			continue
		}
		upcoming = append(upcoming, dto.UpcomingDeadline{
			AssessmentID: entry.Record.ID,
			Title:        entry.Record.Title,
			SubjectID:    entry.Record.SubjectID,
			SubjectName:  lookupName(names, entry.Record.SubjectID),
			Deadline:     entry.Record.Deadline,
			Badge:        entry.Tier.Badge(),
			Label:        entry.Tier.Label(),
			Annotation:   entry.Annotation,
		})
	}

	perSubject := make(map[int]int, len(snapshot.Subjects))
	for _, assessment := range snapshot.Assessments {
		perSubject[assessment.SubjectID]++
	}
	cards := make([]dto.SubjectCard, 0, s.cfg.SubjectLimit)
	for _, subject := range snapshot.Subjects {
		if len(cards) == s.cfg.SubjectLimit {
			break
		}
		cards = append(cards, dto.SubjectCard{
			ID:          subject.ID,
			Name:        subject.Name,
			Description: subject.Description,
			Assessments: perSubject[subject.ID],
			CreatedAt:   subject.CreatedAt,
		})
	}

	return dto.DashboardResponse{
		GeneratedAt: ref.UTC(),
		FetchedAt:   snapshot.FetchedAt,
		Stale:       stale,
		Stats: dto.DashboardStats{
			Subjects:     len(snapshot.Subjects),
			Assessments:  summary.Total,
			WithDeadline: summary.WithDeadline,
			Urgent:       summary.Urgent,
			DueThisWeek:  summary.DueWithinWeek,
		},
		Tiers:    summary.ByTier,
		Upcoming: upcoming,
		Subjects: cards,
	}
}

// Stats returns the counters computed by the records service.
func (s *DashboardService) Stats(ctx context.Context) (*models.RecordStats, error) {
	return s.records.Stats(ctx)
}

func nonNilSubjects(in []models.Subject) []models.Subject {
	if in == nil {
		return []models.Subject{}
	}
	return in
}

func nonNilAssessments(in []models.Assessment) []models.Assessment {
	if in == nil {
		return []models.Assessment{}
	}
	return in
}
