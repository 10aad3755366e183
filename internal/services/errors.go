package services

import (
	"errors"
	"fmt"

	"github.com/lunajoyas/catalogo/internal/repository"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// UserError carries a message that is safe to show to the caller.
type UserError struct {
	Message string
}

func (e UserError) Error() string {
	return e.Message
}

func (e UserError) Unwrap() error {
	return ErrInvalidInput
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
	}
	return err
}
