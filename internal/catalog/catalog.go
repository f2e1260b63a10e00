// Package catalog holds the operations on tenant entities: input normalization,
// validation, and translation of backend failures into messages a person can act on.
//
// Every method takes a context carrying the caller's identity (auth.WithIdentity);
// row-level security on the backend does the rest.
package catalog

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/contacerta/contacerta/internal/apperr"
	"github.com/contacerta/contacerta/internal/store"
)

// Service implements the entity operations over a set of stores.
type Service struct {
	stores   store.Stores
	validate *validator.Validate
	now      func() time.Time
}

// New creates a Service.
func New(stores store.Stores) *Service {
	return &Service{
		stores:   stores,
		validate: newValidator(),
		now:      time.Now,
	}
}

// Stores exposes the underlying stores.
func (s *Service) Stores() store.Stores {
	return s.stores
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// messages maps constraint names, or SQLSTATE codes, to the text shown when an
// operation violates them.
type messages map[string]string

// translate picks the message registered for the violated constraint, then for
// its code, and falls back to apperr.FromStore.
func translate(err error, m messages) error {
	if err == nil {
		return nil
	}
	if ce, ok := store.AsConstraint(err); ok {
		msg, found := m[ce.Constraint]
		if !found {
			msg, found = m[ce.Code]
		}
		if found {
			return &apperr.Error{Kind: constraintKind(ce.Kind), Message: msg, Field: ce.Constraint, Err: err}
		}
	}
	return apperr.FromStore(err)
}

func constraintKind(k store.ConstraintKind) apperr.Kind {
	switch k {
	case store.ConstraintUnique, store.ConstraintForeignKey:
		return apperr.KindConflict
	case store.ConstraintPermission:
		return apperr.KindPermission
	}
	return apperr.KindValidation
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func digitsPtr(s *string) *string {
	s = trimPtr(s)
	if s == nil {
		return nil
	}
	var b strings.Builder
	for _, r := range *s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		// keep the raw value so validation reports it
		return s
	}
	v := b.String()
	return &v
}
