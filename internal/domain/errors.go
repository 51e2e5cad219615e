package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInsufficientCapacity = errors.New("no quantity available")
	ErrNoPricing            = errors.New("no valid pricing")
	ErrConflict             = errors.New("room already booked for the requested dates")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrLocked               = errors.New("room is being reserved by another request")
)

// ValidationError collects per-field messages for a rejected request.
type ValidationError struct {
	fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{fields: make(map[string][]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.fields[field] = append(e.fields[field], msg)
}

func (e *ValidationError) Empty() bool {
	return len(e.fields) == 0
}

// OrNil returns e when at least one field was rejected.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Fields() map[string][]string {
	return e.fields
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func IsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// CapacityError identifies the room that cannot take the requested quantity.
type CapacityError struct {
	RoomID    string
	RoomName  string
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	name := e.RoomName
	if name == "" {
		name = e.RoomID
	}
	return fmt.Sprintf("room %q: %s (requested %d, available %d)", name, ErrInsufficientCapacity, e.Requested, e.Available)
}

func (e *CapacityError) Unwrap() error {
	return ErrInsufficientCapacity
}

func IsCapacityError(err error) *CapacityError {
	var ce *CapacityError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}
