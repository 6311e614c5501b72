package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// trip or itinerary item does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. blank trip name, end time before start time).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrDuplicateName is returned when a trip is created with a name that is
// already taken. Names are the natural key, so the create is rejected.
// Handlers should map this to HTTP 409 Conflict.
var ErrDuplicateName = errors.New("duplicate trip name")

// ErrTransport is returned when the chat completion request fails, times out,
// or yields no usable reply. The turn ends Failed; the user may retry.
// Handlers should map this to HTTP 502 Bad Gateway.
var ErrTransport = errors.New("chat transport error")

// ErrPersistence marks a failed store write during reconciliation. It is
// joined with the underlying repo error, so errors.Is works for both.
var ErrPersistence = errors.New("persistence error")
