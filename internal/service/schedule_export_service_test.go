package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-ga/internal/dto"
	"github.com/noah-isme/timetable-ga/internal/models"
	appErrors "github.com/noah-isme/timetable-ga/pkg/errors"
	"github.com/noah-isme/timetable-ga/pkg/storage"
)

type runReaderStub struct {
	runs map[string]*models.SchedulerRun
}

func (s runReaderStub) FindByID(ctx context.Context, id string) (*models.SchedulerRun, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, assertNotFoundErr
	}
	return run, nil
}

var assertNotFoundErr = appErrors.Clone(appErrors.ErrNotFound, "scheduler run not found")

func sampleResult(t *testing.T) []byte {
	t.Helper()
	rendered := []dto.GAClassroomPairsResponse{
		{
			Classroom: "Room A",
			Pairs: []dto.GAPairResponse{
				{Weekday: 0, Time: 1, Teacher: "Ada", Course: "Algorithms", Groups: []string{"CS-1"}},
			},
		},
	}
	payload, err := json.Marshal(rendered)
	require.NoError(t, err)
	return payload
}

func newScheduleExportFixture(t *testing.T, run *models.SchedulerRun) *ScheduleExportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	runs := runReaderStub{runs: map[string]*models.SchedulerRun{run.ID: run}}
	return NewScheduleExportService(runs, files, signer, ScheduleExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}, zap.NewNop(), nil, nil)
}

func TestScheduleExportServiceGenerateCSVRoundTrip(t *testing.T) {
	run := &models.SchedulerRun{ID: "run-1", Status: models.SchedulerRunStatusDone, Result: sampleResult(t)}
	svc := newScheduleExportFixture(t, run)

	result, err := svc.Generate(context.Background(), "run-1", GAExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, GAExportFormatCSV, result.Format)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	file, relPath, err := svc.Open(result.Token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, result.RelativePath, relPath)

	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Room A")
	assert.Contains(t, string(body), "Algorithms")
}

func TestScheduleExportServiceGeneratePDF(t *testing.T) {
	run := &models.SchedulerRun{ID: "run-2", Status: models.SchedulerRunStatusDone, Result: sampleResult(t)}
	svc := newScheduleExportFixture(t, run)

	result, err := svc.Generate(context.Background(), "run-2", GAExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, GAExportFormatPDF, result.Format)
}

func TestScheduleExportServiceRejectsUnfinishedRun(t *testing.T) {
	run := &models.SchedulerRun{ID: "run-3", Status: models.SchedulerRunStatusRunning}
	svc := newScheduleExportFixture(t, run)

	_, err := svc.Generate(context.Background(), "run-3", GAExportFormatCSV)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestScheduleExportServiceGenerateMissingRun(t *testing.T) {
	svc := newScheduleExportFixture(t, &models.SchedulerRun{ID: "other", Status: models.SchedulerRunStatusDone, Result: sampleResult(t)})

	_, err := svc.Generate(context.Background(), "does-not-exist", GAExportFormatCSV)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScheduleExportServiceOpenRejectsTamperedToken(t *testing.T) {
	run := &models.SchedulerRun{ID: "run-4", Status: models.SchedulerRunStatusDone, Result: sampleResult(t)}
	svc := newScheduleExportFixture(t, run)

	result, err := svc.Generate(context.Background(), "run-4", GAExportFormatCSV)
	require.NoError(t, err)

	_, _, err = svc.Open(result.Token + "tampered")
	require.Error(t, err)
}
