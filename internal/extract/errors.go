package extract

import (
	"errors"
	"fmt"
)

// InputError represents a fatal problem with the input document itself:
// unreadable, not a PDF, zero pages. Runs hitting it never partially succeed.
type InputError struct {
	File   string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.File, e.Reason)
}

// IsInputError reports whether err is (or wraps) an InputError. Callers use
// it to tell client mistakes from processing failures.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// PageError represents a failure on a single page. The pipeline logs it and
// continues with the remaining pages.
type PageError struct {
	Page int
	Op   string
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Op, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// CandidateError represents a failure on a single extraction candidate
// (decode, encode or write). The page's other candidates still proceed.
type CandidateError struct {
	Page  int
	Index int
	Op    string
	Err   error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("page %d candidate %d: %s: %v", e.Page, e.Index, e.Op, e.Err)
}

func (e *CandidateError) Unwrap() error { return e.Err }
