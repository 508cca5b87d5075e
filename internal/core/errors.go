package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrDuplicate        = errors.New("duplicate entry")

	// ErrValidation is wrapped by every input validation error.
	ErrValidation = errors.New("invalid input")

	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidCurrency    = fmt.Errorf("%w: currency must be a 3-letter code", ErrValidation)
	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrValidation)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, MaxDescription)
	ErrInvalidSource      = fmt.Errorf("%w: invalid expense source", ErrValidation)
	ErrInvalidAccountType = fmt.Errorf("%w: invalid account type", ErrValidation)
	ErrInvalidColor       = fmt.Errorf("%w: color must be one of the owner palette", ErrValidation)
	ErrEmptyName          = fmt.Errorf("%w: empty name", ErrValidation)
	ErrInvalidReference   = fmt.Errorf("%w: referenced entity does not exist", ErrValidation)
)

// UserError is an error whose message can be shown to the end user as is.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// DuplicateError names the entry that collided with an existing or pending one.
func DuplicateError(kind, name string) error {
	return fmt.Errorf("%w: %s %q already exists", ErrDuplicate, kind, name)
}
