package dashboard

import (
	"fmt"

	"github.com/dyluth/roster/pkg/state"
)

// MetricsInputError reports a record skipped because a date field could not
// be parsed.
type MetricsInputError struct {
	Collection state.Path
	RecordID   string
	Field      string
	Value      string
	Err        error
}

func (e *MetricsInputError) Error() string {
	return fmt.Sprintf("%s %s: bad %s %q: %v", e.Collection, e.RecordID, e.Field, e.Value, e.Err)
}

func (e *MetricsInputError) Unwrap() error {
	return e.Err
}
