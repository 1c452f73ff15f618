package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips markup from free-text input.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer uses the bluemonday strict policy, which keeps text only.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text removes tags and returns plain, trimmed text.
func (s *Sanitizer) Text(raw string) string {
	// StrictPolicy escapes entities; the value is stored as plain text.
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
