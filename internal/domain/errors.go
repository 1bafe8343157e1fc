package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing collection or record.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized signals a 401/403 answer from the backend.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrServer signals a 5xx answer from the backend.
	ErrServer = errors.New("server error")
	// ErrNetwork signals a connectivity failure or timeout.
	ErrNetwork = errors.New("network error")
	// ErrClient signals any other 4xx answer from the backend.
	ErrClient = errors.New("request rejected")

	// ErrValidation signals client-side field validation failure.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidSchema signals malformed field metadata.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrBusy signals that a mutation is already in flight.
	ErrBusy = errors.New("mutation already in flight")
	// ErrInvalidTransition signals an action that is not allowed in the current mode.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrAlreadyExists signals a duplicate record id.
	ErrAlreadyExists = errors.New("already exists")
)

// Category classifies a transport failure.
type Category string

// Transport failure categories.
const (
	CategoryAuth     Category = "auth"
	CategoryNotFound Category = "not_found"
	CategoryServer   Category = "server"
	CategoryNetwork  Category = "network"
	CategoryClient   Category = "client"
)

// CategoryForStatus maps an HTTP status to a transport category.
// Statuses below 400 have no category.
func CategoryForStatus(status int) Category {
	switch {
	case status == 401 || status == 403:
		return CategoryAuth
	case status == 404:
		return CategoryNotFound
	case status >= 500:
		return CategoryServer
	case status >= 400:
		return CategoryClient
	default:
		return ""
	}
}

// TransportError is a failed backend round trip with the HTTP status folded in.
type TransportError struct {
	Category Category
	Status   int // 0 for network failures
	Message  string
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Category, e.Status, e.Message)
}

// Unwrap maps the category onto its sentinel so callers can use errors.Is.
func (e *TransportError) Unwrap() error {
	switch e.Category {
	case CategoryAuth:
		return ErrUnauthorized
	case CategoryNotFound:
		return ErrNotFound
	case CategoryServer:
		return ErrServer
	case CategoryNetwork:
		return ErrNetwork
	default:
		return ErrClient
	}
}

// NewTransportError creates a transport error for the given status.
func NewTransportError(status int, message string) *TransportError {
	return &TransportError{Category: CategoryForStatus(status), Status: status, Message: message}
}

// NewNetworkError creates a transport error for a connectivity failure.
func NewNetworkError(err error) *TransportError {
	return &TransportError{Category: CategoryNetwork, Message: err.Error()}
}
