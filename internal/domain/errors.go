package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input. It is raised before any store access.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// AuthorizationError reports a caller acting on an entity it does not own.
type AuthorizationError struct {
	Resource string
	Action   string
}

func (e AuthorizationError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("not allowed on %s", e.Resource)
	}
	return fmt.Sprintf("not allowed to %s %s", e.Action, e.Resource)
}

// CapacityExhaustedError reports that a guarded capacity decrement failed.
// No state was changed.
type CapacityExhaustedError struct {
	Resource  string
	ID        string
	Requested int
}

func (e CapacityExhaustedError) Error() string {
	return fmt.Sprintf("not enough seats available on %s", e.Resource)
}

// ConflictError reports a state transition that lost against a concurrent one.
type ConflictError struct {
	Resource string
	Msg      string
}

func (e ConflictError) Error() string {
	switch {
	case e.Resource != "" && e.Msg != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target AuthorizationError
	return errors.As(err, &target)
}

func IsCapacityExhausted(err error) bool {
	var target CapacityExhaustedError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}
