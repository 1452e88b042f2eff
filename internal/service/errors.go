package service

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound reports an unknown task or category id.
	ErrNotFound = errors.New("not found")
	// ErrValidation reports a rejected task input.
	ErrValidation = errors.New("validation failed")
)

// ValidationError lists the fields that failed the pre-create check.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid task: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
