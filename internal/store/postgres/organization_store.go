package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/auth"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// OrganizationStore implements store.OrganizationStore using PostgreSQL.
type OrganizationStore struct {
	b *Backend
}

var _ store.OrganizationStore = (*OrganizationStore)(nil)

// ListAccess returns the caller's memberships joined to organization names.
func (s *OrganizationStore) ListAccess(ctx context.Context, identityID uuid.UUID) ([]*models.OrgAccess, error) {
	query := `
		SELECT o.org_id, o.name, m.role
		FROM memberships m
		JOIN organizations o ON o.org_id = m.org_id
		WHERE m.identity_id = $1
		ORDER BY lower(o.name), o.org_id
	`

	var result []*models.OrgAccess
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, identityID)
		if err != nil {
			return mapPostgresError(fmt.Errorf("failed to list memberships: %w", err))
		}
		defer rows.Close()

		for rows.Next() {
			var a models.OrgAccess
			if err := rows.Scan(&a.OrgID, &a.Name, &a.Role); err != nil {
				return fmt.Errorf("failed to scan membership: %w", err)
			}
			result = append(result, &a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Get retrieves an organization the caller belongs to.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	query := `
		SELECT org_id, name, tax_id, created_at, updated_at
		FROM organizations
		WHERE org_id = $1
	`

	var org models.Organization
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, orgID).Scan(
			&org.OrgID,
			&org.Name,
			&org.TaxID,
			&org.CreatedAt,
			&org.UpdatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, mapPostgresError(fmt.Errorf("failed to get organization: %w", err))
	}

	return &org, nil
}

// CreateAndJoin calls create_org_and_join, which also grants the caller the Owner role.
func (s *OrganizationStore) CreateAndJoin(ctx context.Context, name string, taxID *string) (uuid.UUID, error) {
	var orgID uuid.UUID
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT create_org_and_join($1, $2)`, name, taxID).Scan(&orgID)
	})
	if err != nil {
		return uuid.Nil, mapPostgresError(fmt.Errorf("failed to create organization: %w", err))
	}

	log.Debug().Str("org_id", orgID.String()).Str("name", name).Msg("Created organization")
	return orgID, nil
}

// CreateInvite calls create_invite, which checks the caller is an Owner or Admin.
func (s *OrganizationStore) CreateInvite(ctx context.Context, orgID uuid.UUID, role models.Role, ttl time.Duration) (*models.Invite, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, store.ErrNoIdentity
	}
	if ttl <= 0 {
		ttl = store.DefaultInviteTTL
	}

	invite := &models.Invite{OrgID: orgID, Role: role, CreatedBy: identity.ID}
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT token, expires_at, created_at FROM create_invite($1, $2, $3)`,
			orgID, string(role), ttl,
		).Scan(&invite.Token, &invite.ExpiresAt, &invite.CreatedAt)
	})
	if err != nil {
		err = mapPostgresError(err)
		if store.IsConstraint(err, store.ConstraintPermission) {
			return nil, store.ErrPermissionDenied
		}
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	log.Debug().Str("org_id", orgID.String()).Str("role", string(role)).Msg("Created invite")
	return invite, nil
}

// AcceptInvite calls accept_invite and returns the joined organization.
func (s *OrganizationStore) AcceptInvite(ctx context.Context, token uuid.UUID) (uuid.UUID, error) {
	var orgID uuid.UUID
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT accept_invite($1)`, token).Scan(&orgID)
	})
	if err != nil {
		mapped := mapPostgresError(err)
		switch {
		case errors.Is(mapped, store.ErrInviteNotFound),
			errors.Is(mapped, store.ErrInviteExpired),
			errors.Is(mapped, store.ErrInviteAlreadyUsed):
			return uuid.Nil, mapped
		case store.IsConstraint(mapped, store.ConstraintPermission):
			return uuid.Nil, store.ErrPermissionDenied
		}
		return uuid.Nil, fmt.Errorf("failed to accept invite: %w", mapped)
	}

	log.Debug().Str("org_id", orgID.String()).Msg("Accepted invite")
	return orgID, nil
}
