package colladmin

import (
	"strings"

	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/usecase/browse"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrUnauthorized      = domain.ErrUnauthorized
	ErrServer            = domain.ErrServer
	ErrNetwork           = domain.ErrNetwork
	ErrRejected          = domain.ErrClient
	ErrValidation        = domain.ErrValidation
	ErrBusy              = domain.ErrBusy
	ErrInvalidTransition = domain.ErrInvalidTransition
	ErrStale             = browse.ErrStale
)

// ValidationError lists the failing fields of a rejected payload. It
// matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for name, msg := range e.Fields {
		parts = append(parts, name+": "+msg)
	}
	return "colladmin: " + ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap lets callers match with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }
