package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type gradeIngestor interface {
	UploadGrade(ctx context.Context, actor models.Actor, req dto.GradeRecordRequest) (*dto.IngestionResult, error)
	UploadFromDocument(ctx context.Context, actor models.Actor, req dto.ImportDocumentRequest) (*dto.BatchIngestionResult, error)
	CorrectGrade(ctx context.Context, actor models.Actor, enrollmentID string, req dto.CorrectGradeRequest) (*models.Enrollment, error)
	Recalculate(ctx context.Context, sid string) (*academic.ProgressRecord, error)
}

// EnrollmentHandler exposes grade ingestion endpoints.
type EnrollmentHandler struct {
	service gradeIngestor
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(svc gradeIngestor) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Upload godoc
// @Summary Record one grade
// @Description Records a student's grade in a class, classifies it against the governing curriculum and refreshes the student's progress.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.GradeRecordRequest true "Grade record"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Upload(c *gin.Context) {
	var req dto.GradeRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}
	result, err := h.service.UploadGrade(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Import godoc
// @Summary Import a grade report document
// @Description Fetches a PDF, XLSX or text grade report and records every row. Failed rows are skipped and reported.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.ImportDocumentRequest true "Document location"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /enrollments/import [post]
func (h *EnrollmentHandler) Import(c *gin.Context) {
	var req dto.ImportDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}
	result, err := h.service.UploadFromDocument(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Correct godoc
// @Summary Correct a recorded grade
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.CorrectGradeRequest true "Replacement grade"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [patch]
func (h *EnrollmentHandler) Correct(c *gin.Context) {
	var req dto.CorrectGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid correction payload"))
		return
	}
	enrollment, err := h.service.CorrectGrade(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Recalculate godoc
// @Summary Recompute a student's progress
// @Tags Students
// @Produce json
// @Param sid path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{sid}/recalculate [post]
func (h *EnrollmentHandler) Recalculate(c *gin.Context) {
	record, err := h.service.Recalculate(c.Request.Context(), c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
