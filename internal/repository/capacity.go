package repository

import "context"

// CapacityPool is a resource with a finite number of units whose only legal
// mutation is a guarded atomic decrement.
type CapacityPool interface {
	// Reserve atomically removes units from the resource identified by id
	// when at least that many remain and the resource is open. It returns
	// the remaining units. ErrInsufficientCapacity is returned when the
	// guard fails, ErrNotFound when the resource does not exist.
	Reserve(ctx context.Context, id string, units int) (int, error)
}
