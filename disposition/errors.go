/*
errors.go - Error types for parsing and validating dispositions

ERROR CATEGORIES:
  1. Grammar errors - A line does not match the record shape (ParseError)
  2. Validity errors - A parsed assignment breaks an invariant
     (InvalidAssignmentError)

Neither category is fatal. Batch parsers drop failing lines; the settlement
engine drops invalid assignments and reports them as diagnostics.

USAGE:
  a, err := disposition.ParseLine(line)
  var perr *disposition.ParseError
  if errors.As(err, &perr) {
      log.Printf("column %d: %s", perr.Column, perr.Message)
  }
*/
package disposition

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrGrammar is the root of every record grammar failure.
	ErrGrammar = errors.New("grammar failure")

	// ErrInvalidAssignment is matched by every InvalidAssignmentError.
	ErrInvalidAssignment = errors.New("invalid assignment")

	ErrMissingPersonnelNo = errors.New("personnel number is empty")

	// ErrEmptyShift is returned when start and end are the same clock time.
	ErrEmptyShift = errors.New("shift has zero duration")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ParseError describes where and why a line failed the grammar.
type ParseError struct {
	Input    string
	Column   int    // 1-based position of the failure
	Expected string // token the grammar was looking for
	Message  string
	Err      error // underlying conversion error, if any
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse failed at column %d: expected %s", e.Column, e.Expected)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Is(target error) bool { return target == ErrGrammar }

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidAssignmentError carries the rejected assignment and the violated rule.
type InvalidAssignmentError struct {
	Assignment Assignment
	Err        error
}

func (e *InvalidAssignmentError) Error() string {
	return fmt.Sprintf("invalid assignment %q on %s: %v",
		e.Assignment.PersonnelNo, e.Assignment.Date.Format(DateLayout), e.Err)
}

func (e *InvalidAssignmentError) Is(target error) bool { return target == ErrInvalidAssignment }

func (e *InvalidAssignmentError) Unwrap() error { return e.Err }

// IsGrammar reports whether err stems from the record grammar.
func IsGrammar(err error) bool { return errors.Is(err, ErrGrammar) }

// IsInvalid reports whether err is a validity failure.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalidAssignment) }
