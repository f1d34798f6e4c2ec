package services

import (
	"errors"
	"fmt"
)

// Base classes used by the HTTP error mapping.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidationFailed = errors.New("validation failed")
)

var (
	ErrInvalidRosterID     = fmt.Errorf("%w: roster id must contain exactly 4 uppercase letters", ErrValidationFailed)
	ErrInvalidEventID      = fmt.Errorf("%w: event id must be a canonical version 4 uuid", ErrValidationFailed)
	ErrNoValidNames        = fmt.Errorf("%w: at least one valid name is required", ErrValidationFailed)
	ErrAmbiguousEventQuery = fmt.Errorf("%w: exactly one of roster_id or event_id is required", ErrValidationFailed)

	ErrRosterNotFound = fmt.Errorf("roster %w", ErrNotFound)
	ErrEventNotFound  = fmt.Errorf("event %w", ErrNotFound)
)
