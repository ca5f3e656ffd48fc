package dto

import "github.com/noah-isme/academic-records-api/internal/academic"

// GradeRecordRequest is a single grade submission for one student and class.
type GradeRecordRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	ClassID    string `json:"class_id" validate:"required"`
	Score      int    `json:"score" validate:"gte=0"`
	Grade      string `json:"grade" validate:"required"`
	Program    string `json:"program"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Batch      string `json:"batch"`
}

// IngestionResult describes a committed grade record.
type IngestionResult struct {
	EnrollmentID   string                  `json:"enrollment_id"`
	StudentID      string                  `json:"student_id"`
	ClassID        string                  `json:"class_id"`
	Category       academic.Category       `json:"category"`
	StudentCreated bool                    `json:"student_created"`
	Progress       academic.ProgressRecord `json:"progress"`
}

// ImportDocumentRequest points at a grade-report document to ingest.
type ImportDocumentRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// RowFailure records why a batch row was skipped.
type RowFailure struct {
	Row       int    `json:"row"`
	StudentID string `json:"student_id"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

// BatchIngestionResult summarises a best-effort batch import.
type BatchIngestionResult struct {
	ClassID        string       `json:"class_id"`
	CourseCode     string       `json:"course_code"`
	ProcessedCount int          `json:"processed_count"`
	SkippedCount   int          `json:"skipped_count"`
	ArchivedAs     string       `json:"archived_as,omitempty"`
	Failures       []RowFailure `json:"failures,omitempty"`
}

// CorrectGradeRequest replaces the score and letter of an existing enrollment.
type CorrectGradeRequest struct {
	Score int    `json:"score" validate:"gte=0"`
	Grade string `json:"grade" validate:"required"`
}

// ReconcileJobResponse acknowledges a queued reconciliation run.
type ReconcileJobResponse struct {
	JobID string `json:"job_id"`
}
