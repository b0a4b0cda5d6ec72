package service

import (
	"context"
	"sync"

	"github.com/noah-isme/study-planner/internal/models"
)

// fakeRecords stands in for the records service client.
type fakeRecords struct {
	mu          sync.Mutex
	subjects    []models.Subject
	assessments []models.Assessment

	stats *models.RecordStats

	subjectsErr    error
	assessmentsErr error
	mutateErr      error

	created  []models.AssessmentInput
	updated  map[int]interface{}
	deleted  []int
	nextID   int
	listHits int
}

func (f *fakeRecords) ListSubjects(context.Context) ([]models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listHits++
	if f.subjectsErr != nil {
		return nil, f.subjectsErr
	}
	return append([]models.Subject(nil), f.subjects...), nil
}

func (f *fakeRecords) ListAssessments(context.Context) ([]models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assessmentsErr != nil {
		return nil, f.assessmentsErr
	}
	return append([]models.Assessment(nil), f.assessments...), nil
}

func (f *fakeRecords) CreateSubject(_ context.Context, in models.SubjectInput) (*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	f.nextID++
	subject := models.Subject{ID: 100 + f.nextID, Name: in.Name, Description: in.Description}
	f.subjects = append(f.subjects, subject)
	return &subject, nil
}

func (f *fakeRecords) UpdateSubject(_ context.Context, id int, in models.SubjectInput) (*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	f.track(id, in)
	return &models.Subject{ID: id, Name: in.Name, Description: in.Description}, nil
}

func (f *fakeRecords) DeleteSubject(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRecords) CreateAssessment(_ context.Context, in models.AssessmentInput) (*models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	f.created = append(f.created, in)
	f.nextID++
	return &models.Assessment{ID: 200 + f.nextID, Title: in.Title, SubjectID: in.SubjectID, Deadline: in.Deadline}, nil
}

func (f *fakeRecords) UpdateAssessment(_ context.Context, id int, in models.AssessmentInput) (*models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	f.track(id, in)
	return &models.Assessment{ID: id, Title: in.Title, SubjectID: in.SubjectID, Deadline: in.Deadline}, nil
}

func (f *fakeRecords) DeleteAssessment(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRecords) Stats(context.Context) (*models.RecordStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subjectsErr != nil {
		return nil, f.subjectsErr
	}
	return f.stats, nil
}

func (f *fakeRecords) track(id int, in interface{}) {
	if f.updated == nil {
		f.updated = map[int]interface{}{}
	}
	f.updated[id] = in
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) NotifyChange() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
}

func (n *countingNotifier) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

type fixedUser int

func (u fixedUser) UserID() int { return int(u) }
