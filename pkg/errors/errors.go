package errors

import (
	"fmt"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict is returned when there's a conflict (e.g., idempotency key reuse or a concurrent metafield write)
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrValidation is returned when validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrUpstream is returned when Shopify answers with anything other than success or 404.
// StatusCode is 0 when the request never got a response.
type ErrUpstream struct {
	StatusCode int
	Message    string
}

func (e *ErrUpstream) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("shopify request failed: %s", e.Message)
	}
	return fmt.Sprintf("shopify API error: status %d: %s", e.StatusCode, e.Message)
}

// ErrConfiguration is returned when required settings are missing
type ErrConfiguration struct {
	Key string
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("%s is required", e.Key)
}
