package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInsufficientCapacity is returned when a guarded capacity decrement
	// finds fewer units than requested, or the resource is no longer open.
	ErrInsufficientCapacity = errors.New("insufficient capacity")

	// ErrStaleState is returned when a status transition finds the entity
	// in a different status than expected.
	ErrStaleState = errors.New("entity state changed")
)
