package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner/internal/models"
	appErrors "github.com/noah-isme/study-planner/pkg/errors"
)

func TestSubjectServiceCreate(t *testing.T) {
	records := &fakeRecords{subjects: []models.Subject{{ID: 1, Name: "Physics"}}}
	notifier := &countingNotifier{}
	svc := NewSubjectService(records, notifier, nil, nil)

	subject, err := svc.Create(context.Background(), models.SubjectInput{Name: "  Chemistry ", Description: " Organic and inorganic "})
	require.NoError(t, err)
	assert.Equal(t, "Chemistry", subject.Name)
	assert.Equal(t, "Organic and inorganic", subject.Description)
	assert.Equal(t, 1, notifier.calls())
}

func TestSubjectServiceCreateRejectsDuplicateIgnoringCase(t *testing.T) {
	records := &fakeRecords{subjects: []models.Subject{{ID: 1, Name: "Physics "}}}
	notifier := &countingNotifier{}
	svc := NewSubjectService(records, notifier, nil, nil)

	_, err := svc.Create(context.Background(), models.SubjectInput{Name: "PHYSICS", Description: "Mechanics"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, 0, notifier.calls())
}

func TestSubjectServiceValidation(t *testing.T) {
	svc := NewSubjectService(&fakeRecords{}, nil, nil, nil)
	cases := []struct {
		in  models.SubjectInput
		msg string
	}{
		{models.SubjectInput{Name: " ", Description: "Long enough"}, "name is required"},
		{models.SubjectInput{Name: "A", Description: "Long enough"}, "name must have at least 2 characters"},
		{models.SubjectInput{Name: "Art", Description: "abc "}, "description must have at least 5 characters"},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), tc.in)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
		assert.Equal(t, tc.msg, appErrors.FromError(err).Message)
	}
}

func TestSubjectServiceCountsCharactersNotBytes(t *testing.T) {
	svc := NewSubjectService(&fakeRecords{}, nil, nil, nil)
	_, err := svc.Create(context.Background(), models.SubjectInput{Name: "Ed", Description: "Ótima"})
	assert.NoError(t, err)
}

func TestSubjectServiceUpdate(t *testing.T) {
	records := &fakeRecords{subjects: []models.Subject{{ID: 1, Name: "Physics"}, {ID: 2, Name: "Math"}}}
	svc := NewSubjectService(records, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Update(ctx, 1, models.SubjectInput{Name: "physics", Description: "Renamed in place"})
	assert.NoError(t, err, "keeping its own name is not a conflict")

	_, err = svc.Update(ctx, 1, models.SubjectInput{Name: "math", Description: "Clashes with another"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.Update(ctx, 99, models.SubjectInput{Name: "Biology", Description: "Does not exist"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Update(ctx, 0, models.SubjectInput{Name: "Biology", Description: "Bad id"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSubjectServiceDeletePassesRemoteConflict(t *testing.T) {
	records := &fakeRecords{mutateErr: appErrors.Clone(appErrors.ErrConflict, "subject has assessments")}
	notifier := &countingNotifier{}
	svc := NewSubjectService(records, notifier, nil, nil)

	err := svc.Delete(context.Background(), 3)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, 0, notifier.calls())

	records.mutateErr = nil
	require.NoError(t, svc.Delete(context.Background(), 3))
	assert.Equal(t, []int{3}, records.deleted)
	assert.Equal(t, 1, notifier.calls())
}
