package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-ga/internal/service"
	appErrors "github.com/noah-isme/timetable-ga/pkg/errors"
	"github.com/noah-isme/timetable-ga/pkg/response"
)

// ScheduleExportHandler renders finished GA runs into downloadable files.
type ScheduleExportHandler struct {
	service *service.ScheduleExportService
}

// NewScheduleExportHandler constructs a schedule-export handler.
func NewScheduleExportHandler(svc *service.ScheduleExportService) *ScheduleExportHandler {
	return &ScheduleExportHandler{service: svc}
}

// Generate godoc
// @Summary Render a finished GA run as CSV or PDF
// @Tags Scheduler GA
// @Produce json
// @Param id path string true "Run ID"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {object} response.Envelope
// @Router /scheduler/ga/runs/{id}/export [post]
func (h *ScheduleExportHandler) Generate(c *gin.Context) {
	format := service.GAExportFormat(c.DefaultQuery("format", string(service.GAExportFormatCSV)))

	result, err := h.service.Generate(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Fetch a previously rendered export by token
// @Tags Scheduler GA
// @Produce application/octet-stream
// @Param token path string true "Signed export token"
// @Success 200 {file} binary
// @Router /scheduler/ga/exports/{token} [get]
func (h *ScheduleExportHandler) Download(c *gin.Context) {
	file, relPath, err := h.service.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", "attachment; filename=\""+relPath+"\"")
	if _, err := io.Copy(c.Writer, file); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stream export"))
	}
}
