package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
)

var (
	ErrMemberNotFound   = errors.New("member not found")
	ErrMinistryNotFound = errors.New("ministry not found")
)

// ListMembersOptions filters a member listing. Zero values mean no filter.
type ListMembersOptions struct {
	Search string // matches name or email, case-insensitive
	Status models.MemberStatus
	Limit  int
}

// MemberStore persists members and their ministry assignments.
// Queries scoped to an organization the caller is not a member of return no rows.
type MemberStore interface {
	List(ctx context.Context, orgID uuid.UUID, opts ListMembersOptions) ([]*models.Member, error)

	// Get returns ErrMemberNotFound if the member is absent or not visible.
	Get(ctx context.Context, orgID, memberID uuid.UUID) (*models.Member, error)

	Create(ctx context.Context, member *models.Member) error

	// Update returns ErrMemberNotFound if no visible row was changed.
	Update(ctx context.Context, member *models.Member) error

	// Delete returns ErrMemberNotFound if no visible row was removed.
	Delete(ctx context.Context, orgID, memberID uuid.UUID) error

	// ListMinistries returns the ids of the ministries the member serves in.
	ListMinistries(ctx context.Context, orgID, memberID uuid.UUID) ([]uuid.UUID, error)

	// ReplaceMinistries replaces the member's ministry set in one transaction.
	ReplaceMinistries(ctx context.Context, orgID, memberID uuid.UUID, ministryIDs []uuid.UUID) error
}

// ListMinistriesOptions filters a ministry listing.
type ListMinistriesOptions struct {
	Search     string
	ActiveOnly bool
}

// MinistryStore persists ministries.
type MinistryStore interface {
	List(ctx context.Context, orgID uuid.UUID, opts ListMinistriesOptions) ([]*models.Ministry, error)
	Get(ctx context.Context, orgID, ministryID uuid.UUID) (*models.Ministry, error)
	Create(ctx context.Context, ministry *models.Ministry) error
	Update(ctx context.Context, ministry *models.Ministry) error

	// Delete fails with a foreign key ConstraintError while a cost center is bound to the ministry.
	Delete(ctx context.Context, orgID, ministryID uuid.UUID) error
}
