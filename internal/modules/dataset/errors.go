package dataset

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the loader. Callers branch with errors.Is;
// every error carries file/line context via wrapping.
var (
	// ErrNotFound - the dataset file does not exist at the configured path
	ErrNotFound = errors.New("dataset file not found")
	// ErrMalformed - the file exists but its structure or values cannot be parsed
	ErrMalformed = errors.New("dataset malformed")
	// ErrDuplicatePeriod - two rows resolve to the same calendar month
	ErrDuplicatePeriod = errors.New("duplicate month in dataset")
	// ErrUnknownMonth - a Bulan value is not one of the twelve Indonesian
	// month names. Matched by UnmappedMonthError, which carries the label.
	ErrUnknownMonth = errors.New("unknown month name")
)

// UnmappedMonthError reports a Bulan value outside the twelve Indonesian
// month names. The original label is preserved for the error payload.
type UnmappedMonthError struct {
	Label string
	Line  int
}

func (e *UnmappedMonthError) Error() string {
	return fmt.Sprintf("line %d: unknown month name %q", e.Line, e.Label)
}

// Is makes UnmappedMonthError match both ErrUnknownMonth and ErrMalformed:
// an unknown month is a parse failure of the whole load, the dedicated type
// only adds the label.
func (e *UnmappedMonthError) Is(target error) bool {
	return target == ErrUnknownMonth || target == ErrMalformed
}
