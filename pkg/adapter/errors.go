package adapter

import (
	"github.com/cockroachdb/errors"
)

// ErrNotConnected is returned by every operation issued before Connect.
var ErrNotConnected = errors.New("database connection not established")

// ErrorCategory is the engine-neutral class of an engine error.
type ErrorCategory int

// Error categories.
const (
	CategoryUnknown ErrorCategory = iota
	CategorySyntax
	CategoryNotFound
	CategoryAlreadyExists
	CategoryConstraint
)

func (c ErrorCategory) String() string {
	switch c {
	case CategorySyntax:
		return "syntax"
	case CategoryNotFound:
		return "not found"
	case CategoryAlreadyExists:
		return "already exists"
	case CategoryConstraint:
		return "constraint"
	default:
		return "unknown"
	}
}

// EngineError carries the engine's diagnostic text together with its
// category. Err is the driver error, kept for errors.As.
type EngineError struct {
	Category ErrorCategory
	Message  string
	Err      error
}

func (e *EngineError) Error() string {
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Classifier maps a driver error to a category.
type Classifier func(err error) ErrorCategory

// NewEngineError wraps a driver error as an EngineError, using classify to
// pick the category. classify may be nil.
func NewEngineError(err error, classify Classifier) *EngineError {
	if err == nil {
		return nil
	}
	var existing *EngineError
	if errors.As(err, &existing) {
		return existing
	}
	cat := CategoryUnknown
	if classify != nil {
		cat = classify(err)
	}
	return &EngineError{Category: cat, Message: err.Error(), Err: err}
}

// CategoryOf returns the category of the first EngineError in err's chain,
// or CategoryUnknown.
func CategoryOf(err error) ErrorCategory {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return CategoryUnknown
}

// EngineMessage returns the engine's diagnostic text for err.
func EngineMessage(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
