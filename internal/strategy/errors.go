package strategy

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates an unknown strategy id.
var ErrNotFound = errors.New("strategy not found")

// ValidationError describes a rejected strategy configuration.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid strategy config: %s (%s)", e.Reason, e.Field)
}
