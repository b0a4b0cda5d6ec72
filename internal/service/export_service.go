package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/study-planner/internal/dto"
	"github.com/noah-isme/study-planner/pkg/export"
	appErrors "github.com/noah-isme/study-planner/pkg/errors"
)

// ExportFormat is the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type dashboardProvider interface {
	Dashboard(ctx context.Context) (dto.DashboardResponse, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// ExportResult is a rendered file ready to be sent.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the upcoming deadline list as a downloadable file.
type ExportService struct {
	dashboard dashboardProvider
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to pkg/export.
func NewExportService(dashboard dashboardProvider, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{dashboard: dashboard, csv: csv, pdf: pdf, logger: logger}
}

// Export renders the current upcoming list in the requested format.
func (s *ExportService) Export(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	resp, err := s.dashboard.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	dataset := upcomingDataset(resp.Upcoming)
	filename := fmt.Sprintf("upcoming-deadlines-%s.%s", resp.GeneratedAt.Format("20060102-1504"), format)

	var (
		body        []byte
		contentType string
	)
	switch format {
	case ExportFormatPDF:
		subtitle := fmt.Sprintf("Generated %s", resp.GeneratedAt.Format(time.RFC1123))
		if resp.Stale {
			subtitle += " (offline copy)"
		}
		body, err = s.pdf.Render(dataset, "Upcoming deadlines", subtitle)
		contentType = "application/pdf"
	default:
		body, err = s.csv.Render(dataset)
		contentType = "text/csv"
	}
	if err != nil {
		s.logger.Error("export render failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportResult{Filename: filename, ContentType: contentType, Body: body}, nil
}

func upcomingDataset(upcoming []dto.UpcomingDeadline) export.Dataset {
	rows := make([]map[string]string, 0, len(upcoming))
	for _, item := range upcoming {
		deadline := ""
		if item.Deadline != nil {
			deadline = item.Deadline.UTC().Format("2006-01-02 15:04")
		}
		rows = append(rows, map[string]string{
			"title":     item.Title,
			"subject":   item.SubjectName,
			"deadline":  deadline,
			"remaining": item.Display,
			"status":    item.Badge,
		})
	}
	return export.Dataset{
		Columns: []export.Column{
			{Key: "title", Title: "Assessment", Width: 3},
			{Key: "subject", Title: "Subject", Width: 2},
			{Key: "deadline", Title: "Deadline (UTC)", Width: 2},
			{Key: "remaining", Title: "Remaining", Width: 2},
			{Key: "status", Title: "Status", Width: 1},
		},
		Rows: rows,
	}
}
