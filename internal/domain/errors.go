package domain

import (
	"errors"
	"fmt"
)

// ErrNoActiveSession is returned when a control signal arrives for a user
// whose conversation has already been finalized or cancelled. A repeated
// "save" must hit this path instead of inserting twice.
var ErrNoActiveSession = errors.New("no active session")

// ValidationError reports user input rejected by a field validator.
// The session stays in the same step and the user is re-prompted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Code returns the stable error code used in handler summary logs.
func (e *ValidationError) Code() string { return "VALIDATION" }

// AuthorizationError reports an action refused by the access policy.
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized: %s", e.Action)
}

// Code returns the stable error code used in handler summary logs.
func (e *AuthorizationError) Code() string { return "FORBIDDEN" }

// NotFoundError reports a referenced entity that no longer exists.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Code returns the stable error code used in handler summary logs.
func (e *NotFoundError) Code() string { return "NOT_FOUND" }

// ConstraintError reports a repository-level uniqueness or referential
// violation, e.g. a duplicate registration race.
type ConstraintError struct {
	Op  string
	Err error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: constraint violated: %v", e.Op, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// Code returns the stable error code used in handler summary logs.
func (e *ConstraintError) Code() string { return "CONSTRAINT" }

// GatewayError reports a publication failure. It never undoes the already
// committed listing; callers surface it as a warning.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("publication failed: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Code returns the stable error code used in handler summary logs.
func (e *GatewayError) Code() string { return "GATEWAY" }

// IsValidation reports whether err is a field validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err means a missing entity.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConstraint reports whether err is a repository constraint violation.
func IsConstraint(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}
