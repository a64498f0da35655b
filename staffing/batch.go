package staffing

import (
	"fmt"
	"strings"
)

// ItemError is the failure of one write in a fan-out.
type ItemError struct {
	// Key identifies the item: a shift id, or a date for creations.
	Key string
	Err error
}

func (e ItemError) Error() string { return e.Key + ": " + e.Err.Error() }

func (e ItemError) Unwrap() error { return e.Err }

// BatchError reports a partially applied multi-record operation. Writes not
// listed in Failed were committed and are not rolled back.
type BatchError struct {
	Op        string
	Attempted int
	Failed    []ItemError
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%s: %d of %d writes failed: %s", e.Op, len(e.Failed), e.Attempted, strings.Join(msgs, "; "))
}

// Unwrap exposes every item error to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f
	}
	return errs
}

// Succeeded returns how many writes were committed.
func (e *BatchError) Succeeded() int { return e.Attempted - len(e.Failed) }
