package service

import "errors"

// ErrInvalidInput marks malformed or missing request input.
var ErrInvalidInput = errors.New("invalid input")

// InputError carries the client-facing message for an invalid request.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// NewInputError returns an error that satisfies errors.Is(err, ErrInvalidInput).
func NewInputError(message string) error {
	return &InputError{Message: message}
}
