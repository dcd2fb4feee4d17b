package seqqc

import (
	"errors"
	"fmt"
)

// ErrInsufficientData means a statistic needing spread was asked for fewer than two values.
var ErrInsufficientData = errors.New("insufficient data: need at least 2 values")

// InputFormatError reports a malformed sequence file.
type InputFormatError struct {
	Source string
	Err    error
}

func (e *InputFormatError) Error() string {
	return fmt.Sprintf("malformed sequence input %s: %v", e.Source, e.Err)
}

func (e *InputFormatError) Unwrap() error {
	return e.Err
}
