// Package apperr defines the typed error vocabulary shared by the domain,
// application and transport layers.
package apperr

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

// Code is the stable machine-readable identifier of an error.
type Code string

const (
	CodeInvalidTimeRange       Code = "INVALID_TIME_RANGE"
	CodePastBooking            Code = "PAST_BOOKING"
	CodeInvalidRange           Code = "INVALID_RANGE"
	CodeRoomConflict           Code = "ROOM_CONFLICT"
	CodeAlreadyCancelled       Code = "ALREADY_CANCELLED"
	CodeRoomNotFound           Code = "ROOM_NOT_FOUND"
	CodeBookingNotFound        Code = "BOOKING_NOT_FOUND"
	CodeRoomInactive           Code = "ROOM_INACTIVE"
	CodeRoomNameTaken          Code = "ROOM_NAME_TAKEN"
	CodeValidationFailed       Code = "VALIDATION_FAILED"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
	CodeInvalidStateTransition Code = "INVALID_STATE_TRANSITION"
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeForbidden              Code = "FORBIDDEN"
	CodeInternal               Code = "INTERNAL"
)

// Error is a domain error carrying a kind, a code and optional details.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same code, so sentinels below work with errors.Is
// regardless of message or details.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidTimeRange       = &Error{Kind: KindValidation, Code: CodeInvalidTimeRange, Message: "end time must be after start time"}
	ErrPastBooking            = &Error{Kind: KindValidation, Code: CodePastBooking, Message: "cannot book in the past"}
	ErrInvalidRange           = &Error{Kind: KindValidation, Code: CodeInvalidRange, Message: "invalid time range"}
	ErrRoomConflict           = &Error{Kind: KindConflict, Code: CodeRoomConflict, Message: "this room is already booked for the selected time"}
	ErrAlreadyCancelled       = &Error{Kind: KindValidation, Code: CodeAlreadyCancelled, Message: "booking is already cancelled"}
	ErrRoomNotFound           = &Error{Kind: KindNotFound, Code: CodeRoomNotFound, Message: "meeting room not found"}
	ErrBookingNotFound        = &Error{Kind: KindNotFound, Code: CodeBookingNotFound, Message: "booking not found"}
	ErrRoomInactive           = &Error{Kind: KindValidation, Code: CodeRoomInactive, Message: "meeting room is not active"}
	ErrRoomNameTaken          = &Error{Kind: KindConflict, Code: CodeRoomNameTaken, Message: "meeting room name already exists"}
	ErrConcurrentModification = &Error{Kind: KindConflict, Code: CodeConcurrentModification, Message: "resource was modified by another transaction"}
)

// NewValidationError returns a generic validation failure.
func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidationFailed, Message: msg}
}

// NewInvalidStateError reports a rejected status transition.
func NewInvalidStateError(from, to string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeInvalidStateTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}

// RoomConflict reports the room and the requested range that collided.
func RoomConflict(roomID uuid.UUID, start, end time.Time) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeRoomConflict,
		Message: ErrRoomConflict.Message,
		Details: map[string]any{
			"room_id":    roomID.String(),
			"start_time": start.UTC().Format(time.RFC3339),
			"end_time":   end.UTC().Format(time.RFC3339),
		},
	}
}

// RoomNotFound reports a missing room id.
func RoomNotFound(id uuid.UUID) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeRoomNotFound,
		Message: ErrRoomNotFound.Message,
		Details: map[string]any{"room_id": id.String()},
	}
}

// BookingNotFound reports a missing booking id.
func BookingNotFound(id uuid.UUID) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeBookingNotFound,
		Message: ErrBookingNotFound.Message,
		Details: map[string]any{"booking_id": id.String()},
	}
}

// InvalidRange is returned for malformed availability query bounds.
func InvalidRange(msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidRange, Message: msg}
}

// As unwraps err into an *Error when possible.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}
