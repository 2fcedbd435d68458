package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-ga/internal/dto"
	"github.com/noah-isme/timetable-ga/internal/models"
	appErrors "github.com/noah-isme/timetable-ga/pkg/errors"
	"github.com/noah-isme/timetable-ga/pkg/export"
	"github.com/noah-isme/timetable-ga/pkg/storage"
)

// GAExportFormat is the rendered file type requested for a finished run.
type GAExportFormat string

const (
	GAExportFormatCSV GAExportFormat = "csv"
	GAExportFormatPDF GAExportFormat = "pdf"
)

type schedulerRunReader interface {
	FindByID(ctx context.Context, id string) (*models.SchedulerRun, error)
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ScheduleExportConfig tunes rendered-file retention and link shape.
type ScheduleExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ScheduleExportResult captures where a rendered file landed and how to fetch it.
type ScheduleExportResult struct {
	RelativePath string         `json:"relativePath"`
	Token        string         `json:"token"`
	URL          string         `json:"url"`
	Format       GAExportFormat `json:"format"`
	ExpiresAt    time.Time      `json:"expiresAt"`
}

// ScheduleExportService renders a finished GA run's decoded timetable into a
// CSV or PDF file, reading from a SchedulerRun's persisted JSON result, and
// hands out signed download links for the stored file.
type ScheduleExportService struct {
	runs    schedulerRunReader
	storage exportFileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ScheduleExportConfig
}

// NewScheduleExportService constructs a ScheduleExportService.
func NewScheduleExportService(runs schedulerRunReader, fileStorage exportFileStorage, signer *storage.SignedURLSigner, cfg ScheduleExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ScheduleExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ScheduleExportService{
		runs:    runs,
		storage: fileStorage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders a completed run's result into the requested format and
// returns a signed download link. The run must already be DONE: there is no
// partial export of an in-progress or aborted population.
func (s *ScheduleExportService) Generate(ctx context.Context, runID string, format GAExportFormat) (*ScheduleExportResult, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "scheduler run not found")
	}
	if run.Status != models.SchedulerRunStatusDone {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("run is %s, not DONE: nothing to export yet", run.Status))
	}

	var pairs []dto.GAClassroomPairsResponse
	if err := json.Unmarshal(run.Result, &pairs); err != nil {
		return nil, fmt.Errorf("decode scheduler run result: %w", err)
	}

	dataset := buildExportDataset(pairs)
	title := fmt.Sprintf("Timetable %s", runID)

	var payload []byte
	switch format {
	case GAExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case GAExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	filename := exportFilename(runID, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(runID, relPath)
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ScheduleExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/scheduler/ga/exports/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// Open resolves a download token and returns a handle to the stored file.
func (s *ScheduleExportService) Open(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid export token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", err
	}
	return file, relPath, nil
}

// Cleanup removes rendered files older than ttl (defaults to the configured
// ResultTTL when ttl <= 0) and returns the names it deleted.
func (s *ScheduleExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func buildExportDataset(pairs []dto.GAClassroomPairsResponse) export.Dataset {
	headers := []string{"Classroom", "Weekday", "Time", "Teacher", "Course", "Groups"}
	rows := make([]map[string]string, 0)
	for _, cp := range pairs {
		for _, p := range cp.Pairs {
			rows = append(rows, map[string]string{
				"Classroom": cp.Classroom,
				"Weekday":   fmt.Sprintf("%d", p.Weekday),
				"Time":      fmt.Sprintf("%d", p.Time),
				"Teacher":   p.Teacher,
				"Course":    p.Course,
				"Groups":    strings.Join(p.Groups, ", "),
			})
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func exportFilename(runID string, format GAExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("timetable_%s_%s.%s", sanitizeRunID(runID), timestamp, format)
}

func sanitizeRunID(raw string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", " ", "_")
	return replacer.Replace(raw)
}
