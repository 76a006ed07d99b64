package ronin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"ronin-scraper/internal/browser"
)

// ErrExtraction wraps failures to read an attribute or text out of an element.
var ErrExtraction = errors.New("extraction failed")

// Scope is the unit of work a failure cost.
type Scope string

const (
	// ScopeRow is a single listing row, the rest of the identifier's rows are still collected.
	ScopeRow Scope = "row"
	// ScopeIdentifier is every row of an identifier.
	ScopeIdentifier Scope = "identifier"
	// ScopeRecord is a single transaction of the date stage.
	ScopeRecord Scope = "record"
	// ScopeBatch is a whole input file, the stage was aborted.
	ScopeBatch Scope = "batch"
)

type Kind string

const (
	KindWaitExpired     Kind = "wait-expired"
	KindElementNotFound Kind = "element-not-found"
	KindExtraction      Kind = "extraction"
	KindFileNotFound    Kind = "file-not-found"
	KindCanceled        Kind = "canceled"
	KindUnknown         Kind = "unknown"
)

// Classify maps an error onto the failure kinds.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, browser.ErrWaitExpired):
		return KindWaitExpired
	case errors.Is(err, browser.ErrElementNotFound):
		return KindElementNotFound
	case errors.Is(err, ErrExtraction):
		return KindExtraction
	case errors.Is(err, fs.ErrNotExist):
		return KindFileNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}

// Failure is a unit of work that was skipped, it has already been reported.
type Failure struct {
	Scope Scope
	Kind  Kind
	// Subject names the skipped unit, ex. an identifier, "<identifier> row 3" or a tx hash.
	Subject string
	Err     error
}

func newFailure(scope Scope, subject string, err error) Failure {
	return Failure{
		Scope:   scope,
		Kind:    Classify(err),
		Subject: subject,
		Err:     err,
	}
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", f.Scope, f.Subject, f.Kind, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// CountScope returns the number of failures with the given scope.
func CountScope(failures []Failure, scope Scope) int {
	n := 0
	for _, f := range failures {
		if f.Scope == scope {
			n++
		}
	}
	return n
}
