package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type cohortReporter interface {
	CountStudents(ctx context.Context, courseCode string, query service.CohortQuery) (*dto.CohortReport, error)
	CourseOverall(ctx context.Context, query service.CohortQuery) (*dto.CourseOverallReport, error)
	ExportCohort(ctx context.Context, courseCode string, query service.CohortQuery, format string) (*service.ExportFile, error)
}

// CohortHandler exposes cohort completion reports.
type CohortHandler struct {
	service cohortReporter
}

// NewCohortHandler constructs the handler.
func NewCohortHandler(svc cohortReporter) *CohortHandler {
	return &CohortHandler{service: svc}
}

// CountStudents godoc
// @Summary Course completion for a cohort
// @Description Applies the latest-attempt rule and lists completed, unregistered and superseded students.
// @Tags Reports
// @Produce json
// @Param courseCode path string true "Course code"
// @Param batch query []string true "Batches to report on, repeatable or comma separated"
// @Param include_all query bool false "Include students outside the primary program"
// @Success 200 {object} response.Envelope
// @Router /reports/cohort/{courseCode} [get]
func (h *CohortHandler) CountStudents(c *gin.Context) {
	report, err := h.service.CountStudents(c.Request.Context(), c.Param("courseCode"), cohortQueryFromRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// CourseOverall godoc
// @Summary Completion of every catalog course for a cohort
// @Tags Reports
// @Produce json
// @Param batch query []string true "Batches to report on, repeatable or comma separated"
// @Param include_all query bool false "Include students outside the primary program"
// @Success 200 {object} response.Envelope
// @Router /reports/cohort [get]
func (h *CohortHandler) CourseOverall(c *gin.Context) {
	report, err := h.service.CourseOverall(c.Request.Context(), cohortQueryFromRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Download a cohort report
// @Tags Reports
// @Produce octet-stream
// @Param courseCode path string true "Course code"
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Param batch query []string true "Batches to report on, repeatable or comma separated"
// @Success 200 {file} file
// @Router /reports/cohort/{courseCode}/export [get]
func (h *CohortHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	file, err := h.service.ExportCohort(c.Request.Context(), c.Param("courseCode"), cohortQueryFromRequest(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
