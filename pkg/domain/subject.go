package domain

import "strings"

// Subject is the user-entered ticker or company name.
// A valid Subject is never empty and carries no surrounding whitespace.
type Subject string

// NewSubject trims the raw input and validates that something remains.
func NewSubject(raw string) (Subject, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptySubject
	}
	return Subject(trimmed), nil
}

// String returns the subject text.
func (s Subject) String() string {
	return string(s)
}
