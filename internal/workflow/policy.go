// Package workflow holds the ticket routing policy and the lifecycle state
// machine. Nothing here performs I/O; callers run it inside their own
// persistence transaction.
package workflow

import (
	"sort"
	"strings"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

// ConfidenceThreshold is the minimum classifier confidence, in percent,
// for automatic assignment.
const ConfidenceThreshold = 60.0

// NeedsManualReview reports whether a classification must be routed by an admin.
func NeedsManualReview(category *string, confidence float64) bool {
	return category == nil || isBlank(*category) || confidence < ConfidenceThreshold
}

// Candidates returns eligible technicians for category, least loaded first.
func Candidates(category string, roster []domain.Technician) []domain.Technician {
	if isBlank(category) {
		return nil
	}
	candidates := make([]domain.Technician, 0, len(roster))
	for _, tech := range roster {
		if !tech.Active || tech.AvailabilityStatus != domain.AvailabilityAvailable {
			continue
		}
		if !tech.HasSkill(category) {
			continue
		}
		candidates = append(candidates, tech)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CurrentWorkload == candidates[j].CurrentWorkload {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].CurrentWorkload < candidates[j].CurrentWorkload
	})
	return candidates
}

// SelectTechnician picks the technician that should receive a ticket of
// category. The boolean is false when nobody qualifies.
func SelectTechnician(category string, roster []domain.Technician) (*domain.Technician, bool) {
	candidates := Candidates(category, roster)
	if len(candidates) == 0 {
		return nil, false
	}
	selected := candidates[0]
	return &selected, true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
