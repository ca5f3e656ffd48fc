package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Records API",
        "description": "Grade ingestion, curriculum classification, student progress and cohort completion reports.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Enrollments", "description": "Grade ingestion and correction"},
        {"name": "Students", "description": "Student progress and reconciliation"},
        {"name": "Courses", "description": "Course catalog with curriculum categories"},
        {"name": "Reports", "description": "Cohort completion reports"}
    ],
    "paths": {
        "/enrollments": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Record one grade",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeRecordRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown class", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Class already recorded for student", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/import": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Import a grade report document",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Processed and skipped rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Header class already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Document could not be retrieved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}": {
            "patch": {
                "tags": ["Enrollments"],
                "summary": "Correct a recorded grade",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CorrectGradeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown enrollment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{sid}/progress": {
            "get": {
                "tags": ["Students"],
                "summary": "Student progress",
                "parameters": [
                    {"name": "sid", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{sid}/recalculate": {
            "post": {
                "tags": ["Students"],
                "summary": "Recompute a student's progress",
                "parameters": [
                    {"name": "sid", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/recalculate": {
            "post": {
                "tags": ["Students"],
                "summary": "Queue a progress reconciliation for every student",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A run is already pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/recalculate/{jobId}": {
            "get": {
                "tags": ["Students"],
                "summary": "Reconciliation job status",
                "parameters": [
                    {"name": "jobId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses with curriculum categories",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{code}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get course by code",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/cohort": {
            "get": {
                "tags": ["Reports"],
                "summary": "Completion of every catalog course for a cohort",
                "parameters": [
                    {"name": "batch", "in": "query", "required": true, "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "include_all", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/cohort/{courseCode}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Course completion for a cohort",
                "parameters": [
                    {"name": "courseCode", "in": "path", "required": true, "type": "string"},
                    {"name": "batch", "in": "query", "required": true, "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "include_all", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/cohort/{courseCode}/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a cohort report",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "courseCode", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"], "default": "csv"},
                    {"name": "batch", "in": "query", "required": true, "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        }
    },
    "definitions": {
        "GradeRecordRequest": {
            "type": "object",
            "required": ["student_id", "class_id", "grade"],
            "properties": {
                "student_id": {"type": "string"},
                "class_id": {"type": "string"},
                "score": {"type": "integer"},
                "grade": {"type": "string"},
                "program": {"type": "string"},
                "given_name": {"type": "string"},
                "family_name": {"type": "string"},
                "batch": {"type": "string"}
            }
        },
        "ImportDocumentRequest": {
            "type": "object",
            "required": ["url"],
            "properties": {
                "url": {"type": "string"}
            }
        },
        "CorrectGradeRequest": {
            "type": "object",
            "required": ["grade"],
            "properties": {
                "score": {"type": "integer"},
                "grade": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
