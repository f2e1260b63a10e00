package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/auth"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// Backend keeps every table in memory and mimics the hosted backend's rules:
// rows of an organization are only visible to its members, and writes are checked
// against the same unique, check and foreign key constraints.
// This implementation is for testing only - data is lost on restart.
type Backend struct {
	mu sync.RWMutex

	organizations    map[uuid.UUID]*models.Organization
	memberships      map[uuid.UUID]map[uuid.UUID]models.Role // org_id -> identity_id -> role
	invites          map[uuid.UUID]*models.Invite            // token -> invite
	members          map[uuid.UUID]*models.Member
	memberMinistries map[uuid.UUID][]uuid.UUID // member_id -> ministry ids
	ministries       map[uuid.UUID]*models.Ministry
	suppliers        map[uuid.UUID]*models.Supplier
	costCenters      map[uuid.UUID]*models.CostCenter
	categories       map[uuid.UUID]*models.Category
	assets           map[uuid.UUID]*models.Asset
	documents        map[uuid.UUID]*models.Document

	now func() time.Time
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		organizations:    make(map[uuid.UUID]*models.Organization),
		memberships:      make(map[uuid.UUID]map[uuid.UUID]models.Role),
		invites:          make(map[uuid.UUID]*models.Invite),
		members:          make(map[uuid.UUID]*models.Member),
		memberMinistries: make(map[uuid.UUID][]uuid.UUID),
		ministries:       make(map[uuid.UUID]*models.Ministry),
		suppliers:        make(map[uuid.UUID]*models.Supplier),
		costCenters:      make(map[uuid.UUID]*models.CostCenter),
		categories:       make(map[uuid.UUID]*models.Category),
		assets:           make(map[uuid.UUID]*models.Asset),
		documents:        make(map[uuid.UUID]*models.Document),
		now:              time.Now,
	}
}

// Stores returns every store backed by b.
func (b *Backend) Stores() store.Stores {
	return store.Stores{
		Organizations: &OrganizationStore{b: b},
		Members:       &MemberStore{b: b},
		Ministries:    &MinistryStore{b: b},
		Suppliers:     &SupplierStore{b: b},
		CostCenters:   &CostCenterStore{b: b},
		Categories:    &CategoryStore{b: b},
		Assets:        &AssetStore{b: b},
		Documents:     &DocumentStore{b: b},
	}
}

// SeedOrganization creates an organization with the given memberships directly,
// bypassing the onboarding calls. Meant for tests and local demos.
func (b *Backend) SeedOrganization(name string, roles map[uuid.UUID]models.Role) uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()

	orgID := newID()
	now := b.now()
	b.organizations[orgID] = &models.Organization{OrgID: orgID, Name: name, CreatedAt: now, UpdatedAt: now}
	b.memberships[orgID] = make(map[uuid.UUID]models.Role)
	for identityID, role := range roles {
		b.memberships[orgID][identityID] = role
	}
	return orgID
}

// RevokeMembership removes identityID from orgID, as an administrator would.
func (b *Backend) RevokeMembership(orgID, identityID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.memberships[orgID], identityID)
}

// role returns the caller's role in orgID. Caller must hold b.mu.
func (b *Backend) role(ctx context.Context, orgID uuid.UUID) (models.Role, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return "", false
	}
	role, ok := b.memberships[orgID][identity.ID]
	return role, ok
}

// visible is the row-level security predicate. Caller must hold b.mu.
func (b *Backend) visible(ctx context.Context, orgID uuid.UUID) bool {
	_, ok := b.role(ctx, orgID)
	return ok
}

// checkWrite applies the insert policy: writes outside the caller's organizations are refused.
func (b *Backend) checkWrite(ctx context.Context, orgID uuid.UUID) error {
	if !b.visible(ctx, orgID) {
		return store.NewConstraintError(store.ConstraintPermission, "row-level security")
	}
	return nil
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// matches reports whether search is empty or contained in any field, ignoring case.
func matches(search string, fields ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func sortByName[T any](items []T, name func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(strings.ToLower(name(a)), strings.ToLower(name(b)))
	})
}

// inOrg reports whether id names a row of the given map belonging to orgID.
func inOrg[T any](rows map[uuid.UUID]*T, id uuid.UUID, orgID uuid.UUID, org func(*T) uuid.UUID) bool {
	row, ok := rows[id]
	return ok && org(row) == orgID
}
