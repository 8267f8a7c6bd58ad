package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrNotConfirmed is returned when an operation that requires user confirmation was not confirmed.
	ErrNotConfirmed = errors.New("not confirmed")
)
