package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every store.
var (
	// ErrNoIdentity is returned when a call reaches a store without an identity in its context.
	ErrNoIdentity = errors.New("no authenticated identity")
	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = errors.New("backend unavailable")
)

// ConstraintKind names the class of integrity rule a write violated.
type ConstraintKind string

const (
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintPermission ConstraintKind = "permission"
)

// Backend error codes (SQLSTATE) for each kind.
const (
	CodeNotNull      = "23502"
	CodeForeignKey   = "23503"
	CodeUnique       = "23505"
	CodeCheck        = "23514"
	CodeInsufficient = "42501"
)

// ConstraintError reports a write rejected by the backend's integrity rules.
// Constraint holds the constraint or column name when the backend provides it.
type ConstraintError struct {
	Kind       ConstraintKind
	Code       string
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	msg := fmt.Sprintf("%s violation (%s)", e.Kind, e.Code)
	if e.Constraint != "" {
		msg += " on " + e.Constraint
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// NewConstraintError builds a ConstraintError with the code matching kind.
func NewConstraintError(kind ConstraintKind, constraint string) *ConstraintError {
	codes := map[ConstraintKind]string{
		ConstraintNotNull:    CodeNotNull,
		ConstraintForeignKey: CodeForeignKey,
		ConstraintUnique:     CodeUnique,
		ConstraintCheck:      CodeCheck,
		ConstraintPermission: CodeInsufficient,
	}
	return &ConstraintError{Kind: kind, Code: codes[kind], Constraint: constraint}
}

// AsConstraint unwraps err into a ConstraintError.
func AsConstraint(err error) (*ConstraintError, bool) {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsConstraint reports whether err is a violation of the given kind.
func IsConstraint(err error, kind ConstraintKind) bool {
	ce, ok := AsConstraint(err)
	return ok && ce.Kind == kind
}

// Stores groups every store the application needs.
type Stores struct {
	Organizations OrganizationStore
	Members       MemberStore
	Ministries    MinistryStore
	Suppliers     SupplierStore
	CostCenters   CostCenterStore
	Categories    CategoryStore
	Assets        AssetStore
	Documents     DocumentStore
}
