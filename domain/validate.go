package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLength is the longest accepted task text, counted in code points.
const MaxTextLength = 255

// ValidationCode identifies which rule a task payload violated.
type ValidationCode string

const (
	CodeEmptyText                 ValidationCode = "empty_text"
	CodeTextTooLong               ValidationCode = "text_too_long"
	CodeMissingCreatedDate        ValidationCode = "missing_created_date"
	CodeMissingExpectedDate       ValidationCode = "missing_expected_date"
	CodeExpectedDateTooEarly      ValidationCode = "expected_date_too_early"
	CodeExpectedDateBeforeCreated ValidationCode = "expected_date_before_created"
	CodeInvalidStatus             ValidationCode = "invalid_status"
)

// ValidationError is a recoverable input failure meant to be shown to the
// user. It never escalates; callers keep the offending input for correction.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validateText(text string) (string, *ValidationError) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ValidationError{CodeEmptyText, "task text cannot be empty"}
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", &ValidationError{CodeTextTooLong, "task text cannot exceed 255 characters"}
	}
	return text, nil
}

// ValidateForCreate checks user input for a new task and assembles the task
// to submit: status InProgress, createdDate = the current day. The expected
// date may equal the creation day but never precede it.
func ValidateForCreate(text string, expected Date, now time.Time) (Task, error) {
	text, verr := validateText(text)
	if verr != nil {
		return Task{}, verr
	}
	if expected.IsZero() {
		return Task{}, &ValidationError{CodeMissingExpectedDate, "expected completion date is required"}
	}
	today := DateOf(now)
	if expected.Before(today) {
		return Task{}, &ValidationError{CodeExpectedDateTooEarly, "expected completion date cannot be earlier than today"}
	}
	return Task{
		Text:         text,
		CreatedDate:  today,
		ExpectedDate: expected,
		Status:       StatusInProgress,
	}, nil
}

// ValidateForUpdate checks an edit of an existing task. The id and creation
// date are carried over from the existing task; text, expected date and
// status may change independently.
func ValidateForUpdate(existing Task, text string, expected Date, status Status) (Task, error) {
	text, verr := validateText(text)
	if verr != nil {
		return Task{}, verr
	}
	if expected.IsZero() {
		return Task{}, &ValidationError{CodeMissingExpectedDate, "expected completion date is required"}
	}
	if expected.Before(existing.CreatedDate) {
		return Task{}, &ValidationError{CodeExpectedDateBeforeCreated, "expected completion date cannot be earlier than the creation date"}
	}
	if !status.Valid() {
		return Task{}, &ValidationError{CodeInvalidStatus, "unknown task status"}
	}
	updated := existing
	updated.Text = text
	updated.ExpectedDate = expected
	updated.Status = status
	return updated, nil
}

// Validate checks a fully assembled task payload as received by the server.
func (t Task) Validate() error {
	if _, verr := validateText(t.Text); verr != nil {
		return verr
	}
	if t.CreatedDate.IsZero() {
		return &ValidationError{CodeMissingCreatedDate, "task creation date is required"}
	}
	if t.ExpectedDate.IsZero() {
		return &ValidationError{CodeMissingExpectedDate, "expected completion date is required"}
	}
	if t.ExpectedDate.Before(t.CreatedDate) {
		return &ValidationError{CodeExpectedDateBeforeCreated, "expected completion date cannot be earlier than the creation date"}
	}
	if !t.Status.Valid() {
		return &ValidationError{CodeInvalidStatus, "unknown task status"}
	}
	return nil
}
