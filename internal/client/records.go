package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/noah-isme/study-planner/internal/models"
)

// RecordsClient calls the remote records service. Every call carries the held credential.
type RecordsClient struct {
	base
}

// NewRecordsClient builds a records service client.
func NewRecordsClient(opts Options) *RecordsClient {
	return &RecordsClient{base: newBase(serviceRecords, opts)}
}

type wireSubject struct {
	ID        int       `json:"id"`
	Nome      string    `json:"nome"`
	Descricao string    `json:"descricao"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type wireSubjectRequest struct {
	Nome      string `json:"nome"`
	Descricao string `json:"descricao"`
}

type wireAssessment struct {
	ID              int        `json:"id"`
	Titulo          string     `json:"titulo"`
	ConteudosEstudo string     `json:"conteudos_estudo"`
	Anexos          []string   `json:"anexos"`
	Referencias     []string   `json:"referencias"`
	DataEntrega     *time.Time `json:"data_entrega,omitempty"`
	MateriaID       int        `json:"materia_id"`
	UserID          int        `json:"user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type wireAssessmentRequest struct {
	Titulo          string     `json:"titulo"`
	ConteudosEstudo string     `json:"conteudos_estudo"`
	Anexos          []string   `json:"anexos"`
	Referencias     []string   `json:"referencias"`
	DataEntrega     *time.Time `json:"data_entrega,omitempty"`
	MateriaID       int        `json:"materia_id"`
}

type wireStats struct {
	TotalMaterias     int       `json:"total_materias"`
	TotalProvas       int       `json:"total_provas"`
	ProvasComData     int       `json:"provas_com_data"`
	ProvasProximas    int       `json:"provas_proximas"`
	UltimaAtualizacao time.Time `json:"ultima_atualizacao"`
}

func (w wireSubject) model() models.Subject {
	return models.Subject{
		ID:          w.ID,
		Name:        w.Nome,
		Description: w.Descricao,
		UserID:      w.UserID,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func (w wireAssessment) model() models.Assessment {
	return models.Assessment{
		ID:           w.ID,
		Title:        w.Titulo,
		StudyContent: w.ConteudosEstudo,
		Attachments:  nonNil(w.Anexos),
		References:   nonNil(w.Referencias),
		Deadline:     utc(w.DataEntrega),
		SubjectID:    w.MateriaID,
		UserID:       w.UserID,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

func assessmentRequest(in models.AssessmentInput) wireAssessmentRequest {
	return wireAssessmentRequest{
		Titulo:          in.Title,
		ConteudosEstudo: in.StudyContent,
		Anexos:          nonNil(in.Attachments),
		Referencias:     nonNil(in.References),
		DataEntrega:     utc(in.Deadline),
		MateriaID:       in.SubjectID,
	}
}

// ListSubjects returns every subject owned by the session user.
func (c *RecordsClient) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	var wire []wireSubject
	if err := c.do(ctx, c.authed(http.MethodGet, "/materias", "list_subjects", nil, &wire)); err != nil {
		return nil, err
	}
	subjects := make([]models.Subject, 0, len(wire))
	for _, w := range wire {
		subjects = append(subjects, w.model())
	}
	return subjects, nil
}

// CreateSubject stores a new subject.
func (c *RecordsClient) CreateSubject(ctx context.Context, in models.SubjectInput) (*models.Subject, error) {
	var wire wireSubject
	body := wireSubjectRequest{Nome: in.Name, Descricao: in.Description}
	if err := c.do(ctx, c.authed(http.MethodPost, "/materias", "create_subject", body, &wire)); err != nil {
		return nil, err
	}
	subject := wire.model()
	return &subject, nil
}

// UpdateSubject replaces a subject's name and description.
func (c *RecordsClient) UpdateSubject(ctx context.Context, id int, in models.SubjectInput) (*models.Subject, error) {
	var wire wireSubject
	body := wireSubjectRequest{Nome: in.Name, Descricao: in.Description}
	if err := c.do(ctx, c.authed(http.MethodPut, fmt.Sprintf("/materias/%d", id), "update_subject", body, &wire)); err != nil {
		return nil, err
	}
	subject := wire.model()
	return &subject, nil
}

// DeleteSubject removes a subject. The records service refuses while assessments reference it.
func (c *RecordsClient) DeleteSubject(ctx context.Context, id int) error {
	return c.do(ctx, c.authed(http.MethodDelete, fmt.Sprintf("/materias/%d", id), "delete_subject", nil, nil))
}

// ListAssessments returns every assessment owned by the session user.
func (c *RecordsClient) ListAssessments(ctx context.Context) ([]models.Assessment, error) {
	var wire []wireAssessment
	if err := c.do(ctx, c.authed(http.MethodGet, "/provas-trabalhos", "list_assessments", nil, &wire)); err != nil {
		return nil, err
	}
	assessments := make([]models.Assessment, 0, len(wire))
	for _, w := range wire {
		assessments = append(assessments, w.model())
	}
	return assessments, nil
}

// CreateAssessment stores a new assessment.
func (c *RecordsClient) CreateAssessment(ctx context.Context, in models.AssessmentInput) (*models.Assessment, error) {
	var wire wireAssessment
	if err := c.do(ctx, c.authed(http.MethodPost, "/provas-trabalhos", "create_assessment", assessmentRequest(in), &wire)); err != nil {
		return nil, err
	}
	assessment := wire.model()
	return &assessment, nil
}

// UpdateAssessment replaces an assessment.
func (c *RecordsClient) UpdateAssessment(ctx context.Context, id int, in models.AssessmentInput) (*models.Assessment, error) {
	var wire wireAssessment
	path := fmt.Sprintf("/provas-trabalhos/%d", id)
	if err := c.do(ctx, c.authed(http.MethodPut, path, "update_assessment", assessmentRequest(in), &wire)); err != nil {
		return nil, err
	}
	assessment := wire.model()
	return &assessment, nil
}

// DeleteAssessment removes an assessment.
func (c *RecordsClient) DeleteAssessment(ctx context.Context, id int) error {
	return c.do(ctx, c.authed(http.MethodDelete, fmt.Sprintf("/provas-trabalhos/%d", id), "delete_assessment", nil, nil))
}

// Stats returns the counters computed by the records service.
func (c *RecordsClient) Stats(ctx context.Context) (*models.RecordStats, error) {
	var wire wireStats
	if err := c.do(ctx, c.authed(http.MethodGet, "/stats", "stats", nil, &wire)); err != nil {
		return nil, err
	}
	return &models.RecordStats{
		TotalSubjects:    wire.TotalMaterias,
		TotalAssessments: wire.TotalProvas,
		WithDeadline:     wire.ProvasComData,
		DueSoon:          wire.ProvasProximas,
		UpdatedAt:        wire.UltimaAtualizacao,
	}, nil
}

func (c *RecordsClient) authed(method, path, operation string, body, out interface{}) call {
	return call{
		method:        method,
		path:          path,
		operation:     operation,
		body:          body,
		out:           out,
		useCredential: true,
		enveloped:     true,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
