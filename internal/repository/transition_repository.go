package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/study-planner/internal/models"
)

const defaultTransitionLimit = 50

// TransitionRepository persists tier transitions in PostgreSQL.
type TransitionRepository struct {
	db *sqlx.DB
}

// NewTransitionRepository constructs the repository.
func NewTransitionRepository(db *sqlx.DB) *TransitionRepository {
	return &TransitionRepository{db: db}
}

// Insert stores one transition.
func (r *TransitionRepository) Insert(ctx context.Context, t *models.Transition) error {
	const query = `INSERT INTO deadline_transitions (id, assessment_id, title, subject_name, from_tier, to_tier, deadline, observed_at)
VALUES (:id, :assessment_id, :title, :subject_name, :from_tier, :to_tier, :deadline, :observed_at)
ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("insert deadline transition: %w", err)
	}
	return nil
}

// ListRecent returns the newest transitions first.
func (r *TransitionRepository) ListRecent(ctx context.Context, limit int) ([]models.Transition, error) {
	if limit <= 0 {
		limit = defaultTransitionLimit
	}
	const query = `SELECT id, assessment_id, title, subject_name, from_tier, to_tier, deadline, observed_at
FROM deadline_transitions ORDER BY observed_at DESC LIMIT $1`
	var items []models.Transition
	if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
		return nil, fmt.Errorf("list deadline transitions: %w", err)
	}
	return items, nil
}

// Ping checks the database connection.
func (r *TransitionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
