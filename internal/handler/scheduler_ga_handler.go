package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-ga/internal/dto"
	"github.com/noah-isme/timetable-ga/internal/service"
	appErrors "github.com/noah-isme/timetable-ga/pkg/errors"
	"github.com/noah-isme/timetable-ga/pkg/response"
)

// SchedulerGAHandler exposes the genetic-algorithm timetabling engine.
type SchedulerGAHandler struct {
	service *service.SchedulerGAService
}

// NewSchedulerGAHandler constructs a scheduler GA handler.
func NewSchedulerGAHandler(svc *service.SchedulerGAService) *SchedulerGAHandler {
	return &SchedulerGAHandler{service: svc}
}

// Generate godoc
// @Summary Run the genetic-algorithm timetable generator
// @Tags Scheduler GA
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Scheduling task, weights and GA parameters"
// @Success 200 {object} response.Envelope
// @Router /scheduler/ga/runs [post]
func (h *SchedulerGAHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	runID, result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"runId": runID, "result": result}, nil)
}

// Status godoc
// @Summary Poll a GA scheduling run's status
// @Tags Scheduler GA
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /scheduler/ga/runs/{id} [get]
func (h *SchedulerGAHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
