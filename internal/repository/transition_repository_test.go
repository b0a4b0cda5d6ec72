package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner/internal/models"
	"github.com/noah-isme/study-planner/internal/urgency"
)

func newTransitionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		_ = sqlxDB.Close()
		db.Close()
	}
}

func TestTransitionRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newTransitionRepoMock(t)
	defer cleanup()
	repo := NewTransitionRepository(db)

	deadline := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	observed := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO deadline_transitions").
		WithArgs("tr-1", 7, "Calculus exam", "Math", "warning", "urgent", deadline, observed).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), &models.Transition{
		ID:           "tr-1",
		AssessmentID: 7,
		Title:        "Calculus exam",
		SubjectName:  "Math",
		FromTier:     urgency.TierWarning,
		ToTier:       urgency.TierUrgent,
		Deadline:     &deadline,
		ObservedAt:   observed,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionRepositoryInsertError(t *testing.T) {
	db, mock, cleanup := newTransitionRepoMock(t)
	defer cleanup()
	repo := NewTransitionRepository(db)

	mock.ExpectExec("INSERT INTO deadline_transitions").WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), &models.Transition{ID: "tr-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert deadline transition")
}

func TestTransitionRepositoryListRecent(t *testing.T) {
	db, mock, cleanup := newTransitionRepoMock(t)
	defer cleanup()
	repo := NewTransitionRepository(db)

	observed := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "assessment_id", "title", "subject_name", "from_tier", "to_tier", "deadline", "observed_at"}).
		AddRow("tr-2", 8, "Essay", "History", "safe", "warning", nil, observed).
		AddRow("tr-1", 7, "Exam", "Math", "warning", "urgent", observed.Add(-time.Hour), observed.Add(-time.Hour))
	mock.ExpectQuery("SELECT id, assessment_id").
		WithArgs(defaultTransitionLimit).
		WillReturnRows(rows)

	items, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, urgency.TierWarning, items[0].ToTier)
	assert.Nil(t, items[0].Deadline)
	require.NotNil(t, items[1].Deadline)
	assert.Equal(t, 7, items[1].AssessmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
