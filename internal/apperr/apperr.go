// Package apperr is the error value handed to whoever displays a failure:
// a kind, a human-readable message and the underlying cause.
package apperr

import (
	"context"
	"errors"

	"github.com/contacerta/contacerta/internal/store"
)

// Kind classifies an error for display and retry decisions.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindPermission
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "permission"
	case KindUnavailable:
		return "unavailable"
	}
	return "unexpected"
}

// Messages shared by several translations.
const (
	MsgGeneric     = "Something went wrong. Please try again."
	MsgUnavailable = "The server could not be reached. Check your connection and try again."
	MsgNotFound    = "The record no longer exists. Refresh and try again."
	MsgPermission  = "You do not have permission to do this in this organization."
	MsgRequired    = "Required data is missing."
	MsgReference   = "Invalid reference. Refresh and try again."
	MsgDuplicate   = "A record with this data already exists."
	MsgInvalid     = "Some of the data is invalid."
)

// Error is a failure ready to be shown to a user.
type Error struct {
	Kind    Kind
	Message string
	// Field names the input the message is about, when there is one.
	Field string
	Err   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same call may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindUnavailable || e.Kind == KindUnexpected
}

// New returns an Error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an Error with err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation returns a validation error about field.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// Message returns the text to display for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok {
		return e.Message
	}
	return MsgGeneric
}

var notFound = []error{
	store.ErrOrganizationNotFound,
	store.ErrMemberNotFound,
	store.ErrMinistryNotFound,
	store.ErrSupplierNotFound,
	store.ErrCostCenterNotFound,
	store.ErrCategoryNotFound,
	store.ErrAssetNotFound,
	store.ErrDocumentNotFound,
}

// FromStore translates a backend error using generic messages. Callers that
// know which constraints an operation can hit translate those first and fall
// back to this. nil stays nil and an *Error passes through unchanged.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}

	if ce, ok := store.AsConstraint(err); ok {
		switch ce.Kind {
		case store.ConstraintNotNull:
			return &Error{Kind: KindValidation, Message: MsgRequired, Field: ce.Constraint, Err: err}
		case store.ConstraintForeignKey:
			return Wrap(KindConflict, MsgReference, err)
		case store.ConstraintUnique:
			return Wrap(KindConflict, MsgDuplicate, err)
		case store.ConstraintCheck:
			return Wrap(KindValidation, MsgInvalid, err)
		case store.ConstraintPermission:
			return Wrap(KindPermission, MsgPermission, err)
		}
	}

	for _, sentinel := range notFound {
		if errors.Is(err, sentinel) {
			return Wrap(KindNotFound, MsgNotFound, err)
		}
	}

	switch {
	case errors.Is(err, store.ErrPermissionDenied), errors.Is(err, store.ErrNoIdentity):
		return Wrap(KindPermission, MsgPermission, err)
	case errors.Is(err, store.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return Wrap(KindUnavailable, MsgUnavailable, err)
	}

	return Wrap(KindUnexpected, MsgGeneric, err)
}
