package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/jobs"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type progressReader interface {
	Get(ctx context.Context, sid string) (*dto.StudentProgress, error)
}

type reconciler interface {
	Enqueue(trigger string) (string, error)
	Status(id string) (jobs.State, error)
}

// StudentHandler exposes student progress endpoints.
type StudentHandler struct {
	progress  progressReader
	reconcile reconciler
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(progress progressReader, reconcile reconciler) *StudentHandler {
	return &StudentHandler{progress: progress, reconcile: reconcile}
}

// Progress godoc
// @Summary Student progress
// @Description Returns the stored progress record and the categorized enrollment history.
// @Tags Students
// @Produce json
// @Param sid path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{sid}/progress [get]
func (h *StudentHandler) Progress(c *gin.Context) {
	progress, err := h.progress.Get(c.Request.Context(), c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// ReconcileAll godoc
// @Summary Queue a progress reconciliation for every student
// @Tags Students
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/recalculate [post]
func (h *StudentHandler) ReconcileAll(c *gin.Context) {
	id, err := h.reconcile.Enqueue(service.ReconcileTriggerManual)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.ReconcileJobResponse{JobID: id})
}

// ReconcileStatus godoc
// @Summary Reconciliation job status
// @Tags Students
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /students/recalculate/{jobId} [get]
func (h *StudentHandler) ReconcileStatus(c *gin.Context) {
	state, err := h.reconcile.Status(c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}
