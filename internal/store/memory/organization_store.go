package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/auth"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// OrganizationStore implements store.OrganizationStore on a Backend.
type OrganizationStore struct {
	b *Backend
}

var _ store.OrganizationStore = (*OrganizationStore)(nil)

// ListAccess returns the organizations identityID belongs to, ordered by name.
func (s *OrganizationStore) ListAccess(ctx context.Context, identityID uuid.UUID) ([]*models.OrgAccess, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	var result []*models.OrgAccess
	for orgID, roles := range s.b.memberships {
		role, ok := roles[identityID]
		if !ok {
			continue
		}
		org, ok := s.b.organizations[orgID]
		if !ok {
			continue
		}
		result = append(result, &models.OrgAccess{OrgID: orgID, Name: org.Name, Role: role})
	}

	sortByName(result, func(a *models.OrgAccess) string { return a.Name })
	return result, nil
}

// Get retrieves an organization visible to the caller.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	org, ok := s.b.organizations[orgID]
	if !ok || !s.b.visible(ctx, orgID) {
		return nil, store.ErrOrganizationNotFound
	}

	// Clone to avoid external modifications
	clone := *org
	return &clone, nil
}

// CreateAndJoin creates an organization owned by the caller.
func (s *OrganizationStore) CreateAndJoin(ctx context.Context, name string, taxID *string) (uuid.UUID, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return uuid.Nil, store.ErrNoIdentity
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, store.NewConstraintError(store.ConstraintNotNull, "name")
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	orgID := newID()
	now := s.b.now()
	s.b.organizations[orgID] = &models.Organization{
		OrgID:     orgID,
		Name:      name,
		TaxID:     taxID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.b.memberships[orgID] = map[uuid.UUID]models.Role{identity.ID: models.RoleOwner}

	log.Debug().Str("org_id", orgID.String()).Str("identity_id", identity.ID.String()).Msg("Created organization")
	return orgID, nil
}

// CreateInvite issues an invite for orgID.
func (s *OrganizationStore) CreateInvite(ctx context.Context, orgID uuid.UUID, role models.Role, ttl time.Duration) (*models.Invite, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, store.ErrNoIdentity
	}
	if !role.IsValid() {
		return nil, store.NewConstraintError(store.ConstraintCheck, "role")
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	callerRole, ok := s.b.role(ctx, orgID)
	if !ok || !callerRole.CanInvite() {
		return nil, store.ErrPermissionDenied
	}
	if ttl <= 0 {
		ttl = store.DefaultInviteTTL
	}

	now := s.b.now()
	invite := &models.Invite{
		Token:     uuid.New(),
		OrgID:     orgID,
		Role:      role,
		CreatedBy: identity.ID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	s.b.invites[invite.Token] = invite

	clone := *invite
	return &clone, nil
}

// AcceptInvite joins the caller to the invite's organization.
func (s *OrganizationStore) AcceptInvite(ctx context.Context, token uuid.UUID) (uuid.UUID, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return uuid.Nil, store.ErrNoIdentity
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	invite, ok := s.b.invites[token]
	if !ok {
		return uuid.Nil, store.ErrInviteNotFound
	}
	if invite.IsAccepted() {
		return uuid.Nil, store.ErrInviteAlreadyUsed
	}
	now := s.b.now()
	if now.After(invite.ExpiresAt) {
		return uuid.Nil, store.ErrInviteExpired
	}

	roles := s.b.memberships[invite.OrgID]
	if roles == nil {
		roles = make(map[uuid.UUID]models.Role)
		s.b.memberships[invite.OrgID] = roles
	}
	if _, exists := roles[identity.ID]; !exists {
		roles[identity.ID] = invite.Role
	}

	acceptedBy := identity.ID
	invite.AcceptedAt = &now
	invite.AcceptedBy = &acceptedBy

	log.Debug().Str("org_id", invite.OrgID.String()).Str("identity_id", identity.ID.String()).Msg("Accepted invite")
	return invite.OrgID, nil
}
