package uow

import (
	"fmt"
	"strings"
)

// PartialCommitError reports a sequential unit of work that failed after
// some steps were already applied. The completed steps are listed in
// order so the failure can be reconciled manually.
type PartialCommitError struct {
	Completed []string
	Err       error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf(
		"unit of work failed after partial writes (completed: %s): %v",
		strings.Join(e.Completed, ", "), e.Err,
	)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}
