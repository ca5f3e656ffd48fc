package dto

import "github.com/noah-isme/academic-records-api/internal/models"

// CourseView is the catalog projection of a course with its category labels.
type CourseView struct {
	ID                string                 `json:"id"`
	Code              string                 `json:"code"`
	Name              string                 `json:"name"`
	Description       string                 `json:"description"`
	Credit            int                    `json:"credit"`
	CreditDescription models.CreditBreakdown `json:"credit_description"`
	Category          []string               `json:"category"`
}

// NewCourseView projects a course and the labels computed for it.
func NewCourseView(course models.Course, categories []string) CourseView {
	if categories == nil {
		categories = []string{}
	}
	return CourseView{
		ID:                course.ID,
		Code:              course.Code,
		Name:              course.Name,
		Description:       course.Description,
		Credit:            course.Credit,
		CreditDescription: course.Breakdown(),
		Category:          categories,
	}
}
