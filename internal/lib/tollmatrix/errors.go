package tollmatrix

import (
	"errors"
	"fmt"
)

// ErrUnknownMatrix indicates a matrix name that is not in the configured
// registry. This is a caller configuration error, not retryable.
var ErrUnknownMatrix = errors.New("unknown matrix")

// SourceUnavailableError indicates a transient failure while fetching a
// matrix source. Safe to retry at the caller's discretion; the store does
// not retry on its own.
type SourceUnavailableError struct {
	Name    string
	Locator string
	Err     error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("matrix source %q unavailable (%s): %v", e.Name, e.Locator, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// MalformedCellError reports a cell that is neither numeric nor a recognized
// no-price sentinel. Only surfaced when strict parsing is enabled; the
// default lenient policy degrades such cells to "no price defined".
type MalformedCellError struct {
	Row   int
	Col   int
	Value string
}

func (e *MalformedCellError) Error() string {
	return fmt.Sprintf("malformed matrix cell at row %d, col %d: %q", e.Row, e.Col, e.Value)
}
