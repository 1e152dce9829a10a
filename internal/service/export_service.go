package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/reporting-engine/internal/models"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
	"github.com/noah-isme/reporting-engine/pkg/export"
	"github.com/noah-isme/reporting-engine/pkg/storage"
)

var sessionExportHeaders = []string{"Student ID", "Student Name", "Test", "Percentage", "Marks", "Accuracy", "Percentile", "Rank"}

type sessionRecordStore interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.SectionRecord, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix    string
	ResultTTL    time.Duration
	StoreTimeout time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
	Rows         int
}

// ExportService renders a whole session's reports and persists the file.
type ExportService struct {
	records sessionRecordStore
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	xlsx    xlsxRenderer
	signer  *storage.SignedURLSigner
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers fall back to pkg/export.
func NewExportService(records sessionRecordStore, store fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, xlsx xlsxRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	return &ExportService{
		records: records,
		storage: store,
		csv:     csv,
		pdf:     pdf,
		xlsx:    xlsx,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the session dataset and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	payload, err := s.Render(dataset, title, job.Params.Format)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
		Rows:         len(dataset.Rows),
	}, nil
}

// Render encodes a dataset in the requested format.
func (s *ExportService) Render(data export.Dataset, title string, format models.ExportFormat) ([]byte, error) {
	switch format {
	case models.ExportFormatCSV:
		return s.csv.Render(data)
	case models.ExportFormatPDF:
		return s.pdf.Render(data, title)
	case models.ExportFormatXLSX:
		return s.xlsx.Render(data, title)
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("session_%s_%s.%s", sanitizeFilename(job.SessionID), timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	start := time.Now()
	records, err := s.records.ListBySession(queryCtx, job.SessionID)
	s.metrics.ObserveDBQuery("section_records_by_session", time.Since(start))
	if err != nil {
		s.metrics.RecordUpstreamFailure("record_store")
		return export.Dataset{}, "", appErrors.Upstream(err, "record store unavailable")
	}
	if len(records) == 0 {
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrNotFound, "no records for session")
	}

	byUser := make(map[string][]models.SectionRecord)
	order := make([]string, 0)
	for _, rec := range records {
		if _, seen := byUser[rec.UserID]; !seen {
			order = append(order, rec.UserID)
		}
		byUser[rec.UserID] = append(byUser[rec.UserID], rec)
	}
	sort.Strings(order)

	dataset := export.Dataset{Headers: sessionExportHeaders, Rows: make([]map[string]string, 0, len(order))}
	title := "Session " + job.SessionID
	for _, userID := range order {
		view, err := AssembleReport(byUser[userID], AssembleOptions{Stream: job.Params.Stream, Logger: s.logger})
		if err != nil {
			s.logger.Warn("skipping student without overall record",
				zap.String("session_id", job.SessionID),
				zap.String("user_id", userID),
			)
			continue
		}
		if view.TestName != "" {
			title = view.TestName
		}
		dataset.Rows = append(dataset.Rows, sessionExportRow(view))
	}
	if len(dataset.Rows) == 0 {
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrNotFound, "no complete reports for session")
	}
	return dataset, title, nil
}

func sessionExportRow(view *models.ReportView) map[string]string {
	cell := func(key string) string {
		row, ok := view.OverallPerformance.Row(key)
		if !ok {
			return ""
		}
		return row.Value
	}
	return map[string]string{
		"Student ID":   view.StudentID,
		"Student Name": view.StudentName,
		"Test":         view.TestName,
		"Percentage":   cell("percentage"),
		"Marks":        cell("marks_scored"),
		"Accuracy":     cell("accuracy"),
		"Percentile":   cell("percentile"),
		"Rank":         cell("rank"),
	}
}
