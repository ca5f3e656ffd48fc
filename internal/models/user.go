package models

// UserRole represents the roles carried in access tokens.
type UserRole string

const (
	RoleAdmin           UserRole = "ADMIN"
	RoleCoordinator     UserRole = "COORDINATOR"
	RoleProgramDirector UserRole = "PROGRAM_DIRECTOR"
	RoleLecturer        UserRole = "LECTURER"
	RoleStudent         UserRole = "STUDENT"
)

// GradeMutationRoles may create or change grade records.
var GradeMutationRoles = []UserRole{RoleAdmin, RoleCoordinator}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
