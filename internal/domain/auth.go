package domain

import "time"

// SubjectType differentiates the three account tables.
type SubjectType string

const (
	SubjectTypeUser       SubjectType = "user"
	SubjectTypeTechnician SubjectType = "technician"
	SubjectTypeAdmin      SubjectType = "admin"
)

// ParseSubjectType validates a role name from a login form.
func ParseSubjectType(raw string) (SubjectType, bool) {
	switch SubjectType(raw) {
	case SubjectTypeUser, SubjectTypeTechnician, SubjectTypeAdmin:
		return SubjectType(raw), true
	}
	return "", false
}

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID int64
	Subject   SubjectType
	ExpiresAt time.Time
	IssuedAt  time.Time
}
