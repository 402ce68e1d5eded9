package domain

import (
	"fmt"
	"strings"
)

// ImportTarget selects which profile collection a roster is imported into.
type ImportTarget string

const (
	TargetStudent ImportTarget = "student"
	TargetTeacher ImportTarget = "teacher"
)

// Accepted column aliases, in priority order.
var (
	StudentIDColumns   = []string{"student_id", "학번", "id", "ID", "studentId"}
	StudentNameColumns = []string{"name", "이름", "student_name"}
	TeacherNameColumns = []string{"name", "이름", "teacher_name"}
)

// Profile field names written by the importer on top of the row columns.
const (
	FieldStudentID = "student_id"
	FieldName      = "name"
)

// ParseImportTarget accepts the English and Korean target names.
func ParseImportTarget(s string) (ImportTarget, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student", "students", "학생":
		return TargetStudent, nil
	case "teacher", "teachers", "교사":
		return TargetTeacher, nil
	}
	return "", &ValidationError{Reason: fmt.Sprintf("unknown import target %q", s)}
}

// RosterRow is one data row keyed by column header.
type RosterRow map[string]string

// Roster is a parsed tabular file: ordered headers plus data rows.
type Roster struct {
	Columns []string
	Rows    []RosterRow
}

// PickColumn returns the first alias present in the roster's headers.
func (r Roster) PickColumn(aliases ...string) (string, bool) {
	for _, alias := range aliases {
		for _, col := range r.Columns {
			if col == alias {
				return col, true
			}
		}
	}
	return "", false
}

// Len returns the number of data rows.
func (r Roster) Len() int { return len(r.Rows) }
