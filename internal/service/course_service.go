package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/dto"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// CourseService exposes the catalog with curriculum category labels.
type CourseService struct {
	courses   cohortCourseReader
	curricula curriculumLister
}

// NewCourseService constructs a CourseService.
func NewCourseService(courses cohortCourseReader, curricula curriculumLister) *CourseService {
	return &CourseService{courses: courses, curricula: curricula}
}

// List returns every course ordered by code.
func (s *CourseService) List(ctx context.Context) ([]dto.CourseView, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	curricula, err := s.loadCurricula(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]dto.CourseView, 0, len(courses))
	for _, c := range courses {
		views = append(views, dto.NewCourseView(c, academic.CategoriesForCourse(curricula, c.ID).Labels()))
	}
	return views, nil
}

// Get returns the course with the given code.
func (s *CourseService) Get(ctx context.Context, code string) (*dto.CourseView, error) {
	code = strings.TrimSpace(code)
	course, err := s.courses.FindByCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course [%s] not found", code))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	curricula, err := s.loadCurricula(ctx)
	if err != nil {
		return nil, err
	}
	view := dto.NewCourseView(*course, academic.CategoriesForCourse(curricula, course.ID).Labels())
	return &view, nil
}

func (s *CourseService) loadCurricula(ctx context.Context) ([]academic.Curriculum, error) {
	curricula, err := s.curricula.ListAll(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curricula")
	}
	return classificationView(curricula), nil
}
