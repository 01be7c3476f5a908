package narrative

import (
	"errors"
	"fmt"
)

var (
	// ErrInitialization is matched by every *InitializationError.
	ErrInitialization = errors.New("narrative initialization failed")

	// ErrInvalidChoice is matched by every *InvalidChoiceError.
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrEngine is matched by every *EngineError.
	ErrEngine = errors.New("narrative engine failed")
)

// InitializationError means the engine could not be built from the document,
// or the requested start knot does not exist. It is fatal to the turn.
type InitializationError struct {
	Knot string
	Err  error
}

func (e *InitializationError) Error() string {
	if e.Knot != "" {
		return fmt.Sprintf("narrative initialization failed at knot %q: %v", e.Knot, e.Err)
	}
	return fmt.Sprintf("narrative initialization failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() []error {
	return []error{ErrInitialization, e.Err}
}

// InvalidChoiceError is returned when a choice index is outside the current
// choice list. It is a caller error, not a story error.
type InvalidChoiceError struct {
	Index int
	Count int
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("invalid choice %d: %d choices available", e.Index, e.Count)
}

func (e *InvalidChoiceError) Is(target error) bool {
	return target == ErrInvalidChoice
}

// EngineError means the engine refused a move the controller considered
// valid, such as an in-range choice whose effects cannot be applied. It
// points at a defect in the document, not at the caller. The view is left
// unchanged.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("narrative engine failed during %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() []error {
	return []error{ErrEngine, e.Err}
}
