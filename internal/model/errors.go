package model

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrConfiguration is matched by every tree validation failure.
var ErrConfiguration = errors.New("model: invalid configuration")

// ConfigurationError lists every problem found while validating a tree.
type ConfigurationError struct {
	Tree     string
	Problems error
}

func (e *ConfigurationError) Error() string {
	n := len(multierr.Errors(e.Problems))
	if n == 1 {
		return fmt.Sprintf("model: invalid tree %q: %v", e.Tree, e.Problems)
	}
	return fmt.Sprintf("model: invalid tree %q (%d problems): %v", e.Tree, n, e.Problems)
}

// Is reports a match against ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Problems
}

// Errors returns the individual problems.
func (e *ConfigurationError) Errors() []error {
	return multierr.Errors(e.Problems)
}
