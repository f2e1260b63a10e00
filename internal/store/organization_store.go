package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
)

// Sentinel errors for organization store operations
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrInviteExpired        = errors.New("invite expired")
	ErrInviteAlreadyUsed    = errors.New("invite already used")
	ErrPermissionDenied     = errors.New("permission denied")
)

// DefaultInviteTTL is how long an invite token stays valid.
const DefaultInviteTTL = 7 * 24 * time.Hour

// OrganizationStore covers organizations, memberships and the onboarding calls.
// Every method acts on behalf of the identity carried by ctx (see auth.WithIdentity).
type OrganizationStore interface {
	// ListAccess returns the organizations identityID holds a membership in, with
	// the role held, ordered by organization name.
	ListAccess(ctx context.Context, identityID uuid.UUID) ([]*models.OrgAccess, error)

	// Get retrieves an organization the caller is a member of.
	// Returns ErrOrganizationNotFound otherwise, whether or not it exists.
	Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)

	// CreateAndJoin creates an organization and grants the caller the Owner role.
	// Returns the new organization id.
	CreateAndJoin(ctx context.Context, name string, taxID *string) (uuid.UUID, error)

	// CreateInvite issues an invite token for orgID granting role.
	// Returns ErrPermissionDenied unless the caller is an Owner or Admin there.
	CreateInvite(ctx context.Context, orgID uuid.UUID, role models.Role, ttl time.Duration) (*models.Invite, error)

	// AcceptInvite joins the caller to the invite's organization and returns its id.
	// Returns ErrInviteNotFound, ErrInviteExpired or ErrInviteAlreadyUsed. Accepting an
	// invite for an organization the caller already belongs to only marks it used.
	AcceptInvite(ctx context.Context, token uuid.UUID) (uuid.UUID, error)
}
