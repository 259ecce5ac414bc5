package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid pipeline parameters. Fails the run
	// before any external call.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrMalformedModelOutput marks a generation response that could not be
	// parsed even after recovery. Carries the raw response via wrapping.
	ErrMalformedModelOutput = errors.New("malformed model output")
	// ErrEvidenceUnavailable marks an unreachable embedding or similarity
	// service. Per-claim fatal, run-level non-fatal.
	ErrEvidenceUnavailable = errors.New("evidence service unavailable")
	// ErrModelUnavailable marks an unreachable text-generation service.
	ErrModelUnavailable = errors.New("model service unavailable")

	ErrDocumentNotFound = errors.New("document not found")
	ErrRunNotFound      = errors.New("run not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
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
