package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type courseCatalog interface {
	List(ctx context.Context) ([]dto.CourseView, error)
	Get(ctx context.Context, code string) (*dto.CourseView, error)
}

// CourseHandler exposes the course catalog.
type CourseHandler struct {
	service courseCatalog
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(svc courseCatalog) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List courses with curriculum categories
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Get godoc
// @Summary Get course by code
// @Tags Courses
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/{code} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}
