package domain

import "time"

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Initial passwords handed out at account creation. Every account created
// with one of these is flagged to change it on first login.
const (
	DefaultAdminUsername   = "admin"
	DefaultAdminPassword   = "admin"
	DefaultStudentPassword = "a1234567!"
	DefaultTeacherPassword = "t1234567!"
)

// MinPasswordLength is the shortest password accepted by a password change.
const MinPasswordLength = 8

// Credential is the login record of a single account.
type Credential struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	Role               string    `json:"role"`
	PasswordHash       string    `json:"-"`
	MustChangePassword bool      `json:"must_change_pw"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}
