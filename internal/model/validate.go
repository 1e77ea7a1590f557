package model

import "strings"

// memberIDLength is the exact number of digits in a member identifier.
const memberIDLength = 11

// ValidateMemberID checks that the member identifier is exactly 11 numeric
// digits. Format validation is local; eligibility is a separate concern.
func ValidateMemberID(memberID string) error {
	if len(memberID) != memberIDLength {
		return ErrInvalidMemberID
	}
	for _, r := range memberID {
		if r < '0' || r > '9' {
			return ErrInvalidMemberID
		}
	}
	return nil
}

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateAgendaItem checks an AgendaItem for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the item is valid.
func ValidateAgendaItem(a *AgendaItem) error {
	var ve ValidationError

	title := strings.TrimSpace(a.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > 500 {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 500 characters or fewer"})
	}

	if len([]rune(a.Description)) > 1000 {
		ve.Errors = append(ve.Errors, FieldError{Field: "description", Message: "must be 1000 characters or fewer"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
