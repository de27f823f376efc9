package structure

import (
	"errors"
	"fmt"
)

// ErrMalformed matches every *MalformedStructureError via errors.Is.
var ErrMalformed = errors.New("malformed structure")

// Reason classifies why a structure failed to parse.
type Reason int

const (
	ReasonBadCount      Reason = iota + 1 // header is not a positive integer
	ReasonMissingAtoms                    // fewer data lines than the header promises
	ReasonBadFieldCount                   // data line is not SYMBOL X Y Z
	ReasonBadCoordinate                   // coordinate is not a finite number
)

func (r Reason) String() string {
	switch r {
	case ReasonBadCount:
		return "bad-count"
	case ReasonMissingAtoms:
		return "missing-atoms"
	case ReasonBadFieldCount:
		return "bad-field-count"
	case ReasonBadCoordinate:
		return "bad-coordinate"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// MalformedStructureError reports a parse failure. Line is 1-based; zero
// means the failure is not tied to a specific line.
type MalformedStructureError struct {
	Reason Reason
	Line   int
	Detail string
}

func (e *MalformedStructureError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed structure (%s) at line %d: %s", e.Reason, e.Line, e.Detail)
	}
	return fmt.Sprintf("malformed structure (%s): %s", e.Reason, e.Detail)
}

func (e *MalformedStructureError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(r Reason, line int, format string, args ...any) error {
	return &MalformedStructureError{Reason: r, Line: line, Detail: fmt.Sprintf(format, args...)}
}
