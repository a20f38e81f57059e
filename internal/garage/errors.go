// Package garage implements the check-in and check-out transaction
// core: spot selection, duplicate-session prevention, and the
// compensation logic that unwinds partially applied operations.  The
// package is transport-agnostic; HTTP handlers translate its typed
// errors into status codes.
package garage

import (
	"errors"
	"fmt"

	"github.com/parkwise/parkwise/internal/model"
)

// FailureKind classifies why an operation was refused or failed.
type FailureKind string

const (
	KindValidationFailed FailureKind = "validation_failed"
	KindAlreadyCheckedIn FailureKind = "already_checked_in"
	KindNoSpotsAvailable FailureKind = "no_spots_available"
	KindNotCheckedIn     FailureKind = "not_checked_in"
	KindStoreFailure     FailureKind = "store_failure"
)

// Error is the single error type the service returns.  Kind drives the
// caller's handling; the remaining fields carry context for the
// response body.  Availability is only populated on
// KindNoSpotsAvailable, SpotID only when a specific spot is involved.
type Error struct {
	Kind         FailureKind
	Detail       string
	Plate        string
	SpotID       string
	Availability *model.AvailabilitySnapshot
	Retryable    bool
	cause        error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf returns the failure kind of err, or an empty string when err
// is not a garage error.
func KindOf(err error) FailureKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

func errValidation(detail string) *Error {
	return &Error{Kind: KindValidationFailed, Detail: detail}
}

func errAlreadyCheckedIn(plate, spotID string) *Error {
	return &Error{
		Kind:   KindAlreadyCheckedIn,
		Detail: "vehicle already has an active session",
		Plate:  plate,
		SpotID: spotID,
	}
}

func errNoSpots(plate string, snap *model.AvailabilitySnapshot) *Error {
	return &Error{
		Kind:         KindNoSpotsAvailable,
		Detail:       "no compatible spot is available",
		Plate:        plate,
		Availability: snap,
	}
}

func errNotCheckedIn(plate string) *Error {
	return &Error{
		Kind:   KindNotCheckedIn,
		Detail: "no active session for this vehicle",
		Plate:  plate,
	}
}

func errStore(detail string, retryable bool, cause error) *Error {
	return &Error{Kind: KindStoreFailure, Detail: detail, Retryable: retryable, cause: cause}
}
