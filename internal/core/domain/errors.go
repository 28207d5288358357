package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound      = errors.New("document not found")
	ErrFragmentNotFound      = errors.New("fragment not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrMalformedResponse     = errors.New("malformed model response")
	ErrGenerationUnavailable = errors.New("generation unavailable")
	ErrTemporary             = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
