package settlement

import (
	"errors"
	"fmt"

	"github.com/warp/disposition-engine/disposition"
)

var (
	// ErrEmployeeNotFound is returned when the directory has no entry for an
	// assignment's personnel number.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrInvalidAssignment re-exports the validity sentinel for callers that
	// only import this package.
	ErrInvalidAssignment = disposition.ErrInvalidAssignment

	// ErrNegativeBonus is returned by AddRule for a rule that would lower the
	// surcharge.
	ErrNegativeBonus = errors.New("rule bonus must not be negative")
)

// LookupError names the personnel number that could not be resolved.
type LookupError struct {
	PersonnelNo string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("employee not found: %s", e.PersonnelNo)
}

func (e *LookupError) Unwrap() error { return ErrEmployeeNotFound }

// IsNotFound reports whether err is a directory lookup failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrEmployeeNotFound) }

// IsRejected reports whether err means an assignment was left out of the
// results rather than the engine failing.
func IsRejected(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) || errors.Is(err, ErrInvalidAssignment)
}
