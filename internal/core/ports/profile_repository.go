package ports

import "context"

// ProfileRepository upserts imported roster data. Fields are stored as-is
// on top of whatever the existing document holds.
type ProfileRepository interface {
	UpsertStudent(ctx context.Context, studentID string, fields map[string]string) error
	UpsertTeacher(ctx context.Context, name string, fields map[string]string) error

	// TeacherAccounts lists the login usernames already provisioned for
	// teachers sharing this profile name, in the order they were created.
	TeacherAccounts(ctx context.Context, name string) ([]string, error)
	LinkTeacherAccount(ctx context.Context, name, username string) error
}
