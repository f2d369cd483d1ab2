package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrTicketNotFound signals a ticket that does not exist in the ticket source.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrInvalidRequest signals a request rejected at the boundary.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSimilarityComputation signals a failed pairwise comparison.
	ErrSimilarityComputation = errors.New("similarity computation failed")
	// ErrTicketSourceUnavailable signals that the ticket source cannot be reached.
	ErrTicketSourceUnavailable = errors.New("ticket source unavailable")
	// ErrUnauthorized signals rejected credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// KeyPrefix namespaces every key simdex writes to the cache store.
const KeyPrefix = "simdex:"

// TicketNotFoundError wraps ErrTicketNotFound with the requested ticket ID.
type TicketNotFoundError struct {
	TicketID int
}

func (e *TicketNotFoundError) Error() string {
	return fmt.Sprintf("%s: %d", ErrTicketNotFound.Error(), e.TicketID)
}

func (e *TicketNotFoundError) Unwrap() error { return ErrTicketNotFound }

// NewTicketNotFound creates a ticket-not-found error.
func NewTicketNotFound(ticketID int) error {
	return &TicketNotFoundError{TicketID: ticketID}
}
