package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-ga/internal/dto"
	"github.com/noah-isme/timetable-ga/internal/models"
	"github.com/noah-isme/timetable-ga/internal/service"
	"github.com/noah-isme/timetable-ga/pkg/storage"
)

type exportRunReaderStub struct {
	run *models.SchedulerRun
}

func (s exportRunReaderStub) FindByID(ctx context.Context, id string) (*models.SchedulerRun, error) {
	if s.run == nil || s.run.ID != id {
		return nil, http.ErrNoLocation
	}
	return s.run, nil
}

func newScheduleExportHandlerFixture(t *testing.T, run *models.SchedulerRun) *ScheduleExportHandler {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("handler-export-secret", time.Hour)
	svc := service.NewScheduleExportService(exportRunReaderStub{run: run}, files, signer,
		service.ScheduleExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}, zap.NewNop(), nil, nil)
	return NewScheduleExportHandler(svc)
}

func doneRunWithResult(t *testing.T, id string) *models.SchedulerRun {
	t.Helper()
	rendered := []dto.GAClassroomPairsResponse{{
		Classroom: "Room A",
		Pairs: []dto.GAPairResponse{
			{Weekday: 0, Time: 0, Teacher: "Ada", Course: "Algorithms", Groups: []string{"CS-1"}},
		},
	}}
	payload, err := json.Marshal(rendered)
	require.NoError(t, err)
	return &models.SchedulerRun{ID: id, Status: models.SchedulerRunStatusDone, Result: payload}
}

func TestScheduleExportHandlerGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newScheduleExportHandlerFixture(t, doneRunWithResult(t, "run-1"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/scheduler/ga/runs/run-1/export?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}

	h.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleExportHandlerGenerateRejectsUnfinishedRun(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newScheduleExportHandlerFixture(t, &models.SchedulerRun{ID: "run-2", Status: models.SchedulerRunStatusRunning})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/scheduler/ga/runs/run-2/export", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-2"}}

	h.Generate(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestScheduleExportHandlerDownloadRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newScheduleExportHandlerFixture(t, doneRunWithResult(t, "run-3"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/scheduler/ga/runs/run-3/export", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-3"}}
	h.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	token := data["token"].(string)

	dw := httptest.NewRecorder()
	dc, _ := gin.CreateTestContext(dw)
	dc.Request = httptest.NewRequest(http.MethodGet, "/scheduler/ga/exports/"+token, nil)
	dc.Params = gin.Params{{Key: "token", Value: token}}

	h.Download(dc)

	require.Equal(t, http.StatusOK, dw.Code)
	require.Contains(t, dw.Body.String(), "Room A")
}

func TestScheduleExportHandlerDownloadRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newScheduleExportHandlerFixture(t, doneRunWithResult(t, "run-4"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/scheduler/ga/exports/garbage", nil)
	c.Params = gin.Params{{Key: "token", Value: "garbage"}}

	h.Download(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
