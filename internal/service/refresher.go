package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner/internal/dto"
	"github.com/noah-isme/study-planner/internal/models"
	"github.com/noah-isme/study-planner/internal/urgency"
	"github.com/noah-isme/study-planner/pkg/jobs"
)

// TransitionJobType identifies tier transition notification jobs.
const TransitionJobType = "deadline.transition"

type dashboardSource interface {
	Fetch(ctx context.Context) (models.Snapshot, bool, error)
	Build(ref time.Time, snapshot models.Snapshot, stale bool) dto.DashboardResponse
}

type jobPublisher interface {
	TryEnqueue(job jobs.Job) error
}

// RefresherConfig controls the recompute and refetch cadence.
type RefresherConfig struct {
	TickInterval    time.Duration
	RefetchInterval time.Duration
}

// DashboardRefresher keeps the dashboard current. It recomputes countdowns from the held
// snapshot on every tick and refetches the record set periodically or after a change.
type DashboardRefresher struct {
	source    dashboardSource
	scope     userScope
	publisher jobPublisher
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
	cfg       RefresherConfig

	changes chan struct{}

	mu       sync.Mutex
	loaded   bool
	owner    int
	snapshot models.Snapshot
	stale    bool
	tiers    map[int]urgency.Tier
	latest   dto.DashboardResponse
}

// DashboardRefresherParams groups constructor dependencies.
type DashboardRefresherParams struct {
	Source    dashboardSource
	Scope     userScope
	Publisher jobPublisher
	Metrics   *MetricsService
	Logger    *zap.Logger
	Config    RefresherConfig
}

// NewDashboardRefresher constructs a refresher. Publisher may be nil.
func NewDashboardRefresher(params DashboardRefresherParams) *DashboardRefresher {
	cfg := params.Config
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	if cfg.RefetchInterval <= 0 {
		cfg.RefetchInterval = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardRefresher{
		source:    params.Source,
		scope:     params.Scope,
		publisher: params.Publisher,
		metrics:   params.Metrics,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
		changes:   make(chan struct{}, 1),
		tiers:     map[int]urgency.Tier{},
	}
}

// Run drives the refresh loop until ctx is cancelled.
func (r *DashboardRefresher) Run(ctx context.Context) {
	tick := time.NewTicker(r.cfg.TickInterval)
	defer tick.Stop()
	refetch := time.NewTicker(r.cfg.RefetchInterval)
	defer refetch.Stop()

	r.logger.Info("dashboard refresher started",
		zap.Duration("tick", r.cfg.TickInterval),
		zap.Duration("refetch", r.cfg.RefetchInterval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("dashboard refresher stopped")
			return
		case <-tick.C:
			r.recompute()
		case <-refetch.C:
			r.refreshIfAuthenticated(ctx)
		case <-r.changes:
			r.refreshIfAuthenticated(ctx)
		}
	}
}

// NotifyChange schedules a refetch. It never blocks.
func (r *DashboardRefresher) NotifyChange() {
	select {
	case r.changes <- struct{}{}:
	default:
	}
}

// Dashboard returns the dashboard computed against the current instant, fetching first when
// nothing is held for the current user.
func (r *DashboardRefresher) Dashboard(ctx context.Context) (dto.DashboardResponse, error) {
	r.mu.Lock()
	current := r.loaded && r.owner == r.userID()
	r.mu.Unlock()
	if !current {
		if err := r.Refresh(ctx); err != nil {
			return dto.DashboardResponse{}, err
		}
	}
	return r.recompute(), nil
}

// Latest returns the most recently computed dashboard without recomputing.
func (r *DashboardRefresher) Latest() (dto.DashboardResponse, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest, r.loaded
}

// Refresh refetches the record set and recomputes.
func (r *DashboardRefresher) Refresh(ctx context.Context) error {
	snapshot, stale, err := r.source.Fetch(ctx)
	if err != nil {
		r.logger.Warn("dashboard refresh rejected", zap.Error(err))
		r.Reset()
		return err
	}

	r.mu.Lock()
	owner := r.userID()
	if owner != r.owner {
		r.tiers = map[int]urgency.Tier{}
	}
	r.loaded = true
	r.owner = owner
	r.snapshot = snapshot
	r.stale = stale
	r.mu.Unlock()

	r.recompute()
	return nil
}

// Reset drops the held snapshot and the tier history.
func (r *DashboardRefresher) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.owner = 0
	r.snapshot = models.Snapshot{}
	r.stale = false
	r.tiers = map[int]urgency.Tier{}
	r.latest = dto.DashboardResponse{}
}

func (r *DashboardRefresher) refreshIfAuthenticated(ctx context.Context) {
	if r.userID() == 0 {
		return
	}
	_ = r.Refresh(ctx)
}

func (r *DashboardRefresher) recompute() dto.DashboardResponse {
	ref := r.now()

	r.mu.Lock()
	if !r.loaded {
		r.mu.Unlock()
		return dto.DashboardResponse{}
	}
	resp := r.source.Build(ref, r.snapshot, r.stale)
	r.latest = resp
	transitions := r.detectTransitions(ref)
	r.mu.Unlock()

	r.metrics.SetTierCounts(resp.Tiers)
	for _, t := range transitions {
		r.publish(t)
	}
	return resp
}

// detectTransitions compares every assessment's tier with the previous recompute. Only moves
// into urgent, warning or expired are reported. Callers hold r.mu.
func (r *DashboardRefresher) detectTransitions(ref time.Time) []models.Transition {
	names := subjectNames(r.snapshot.Subjects)
	next := make(map[int]urgency.Tier, len(r.snapshot.Assessments))
	var out []models.Transition
	for _, assessment := range r.snapshot.Assessments {
		tier := urgency.Classify(urgency.ComputeRemaining(ref, assessment.Deadline))
		next[assessment.ID] = tier
		prev, seen := r.tiers[assessment.ID]
		if !seen || prev == tier || !notifiable(tier) {
			continue
		}
		out = append(out, models.Transition{
			ID:           uuid.NewString(),
			AssessmentID: assessment.ID,
			Title:        assessment.Title,
			SubjectName:  lookupName(names, assessment.SubjectID),
			FromTier:     prev,
			ToTier:       tier,
			Deadline:     assessment.Deadline,
			ObservedAt:   ref.UTC(),
		})
	}
	r.tiers = next
	return out
}

func (r *DashboardRefresher) publish(t models.Transition) {
	if r.publisher == nil {
		return
	}
	err := r.publisher.TryEnqueue(jobs.Job{Type: TransitionJobType, Payload: t})
	if err != nil {
		r.logger.Warn("transition notification dropped",
			zap.Int("assessment_id", t.AssessmentID),
			zap.String("to_tier", string(t.ToTier)),
			zap.Error(err))
	}
}

func (r *DashboardRefresher) userID() int {
	if r.scope == nil {
		return 0
	}
	return r.scope.UserID()
}

func notifiable(tier urgency.Tier) bool {
	switch tier {
	case urgency.TierUrgent, urgency.TierWarning, urgency.TierExpired:
		return true
	default:
		return false
	}
}
