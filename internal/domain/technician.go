package domain

import (
	"strings"
	"time"
)

// AvailabilityStatus tells whether a technician takes new work.
type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "Available"
	AvailabilityUnavailable AvailabilityStatus = "Unavailable"
)

// Technician models a staff member who resolves tickets.
type Technician struct {
	ID                   int64
	Name                 string
	Email                string
	Phone                string
	PasswordHash         string
	Skills               []string
	CurrentWorkload      int
	MaxWorkload          int
	AvailabilityStatus   AvailabilityStatus
	ExpertiseLevel       string
	TotalTicketsResolved int
	Active               bool
	CreatedAt            time.Time
	LastLogin            *time.Time
}

// HasSkill reports whether category is in the technician's skill set.
func (t Technician) HasSkill(category string) bool {
	for _, skill := range t.Skills {
		if equalFoldTrim(skill, category) {
			return true
		}
	}
	return false
}

// AtCapacity reports whether the technician reached the workload ceiling.
func (t Technician) AtCapacity() bool {
	return t.MaxWorkload > 0 && t.CurrentWorkload >= t.MaxWorkload
}

// ParseSkills splits a comma separated skill list.
func ParseSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// JoinSkills renders skills as a comma separated list.
func JoinSkills(skills []string) string {
	return strings.Join(skills, ",")
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
