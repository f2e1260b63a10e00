// Package session coordinates the logged-in identity, the directory of
// organizations it can access and the active organization every view reads.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/apperr"
	"github.com/contacerta/contacerta/internal/auth"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
	"github.com/contacerta/contacerta/internal/telemetry"
)

// ErrNotMember is returned when switching to an organization missing from the directory.
var ErrNotMember = errors.New("not a member of this organization")

// MinOrgNameLength is the shortest organization name accepted at creation.
const MinOrgNameLength = 3

var inviteTokenRE = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Outcome tells the caller where a freshly logged-in identity should go next.
type Outcome int

const (
	// NeedsOnboarding means the identity has no memberships: create an organization or accept an invite.
	NeedsOnboarding Outcome = iota
	// NeedsSelection means several organizations are available and none is active.
	NeedsSelection
	// Ready means an organization is active.
	Ready
	// DirectoryUnavailable means the organizations could not be loaded and none
	// is active; retry the refresh before routing anywhere.
	DirectoryUnavailable
)

func (o Outcome) String() string {
	switch o {
	case NeedsOnboarding:
		return "needs_onboarding"
	case NeedsSelection:
		return "needs_selection"
	case DirectoryUnavailable:
		return "directory_unavailable"
	}
	return "ready"
}

// Listener is told about every change of the active organization. A zero value
// means no organization is active.
type Listener func(models.ActiveOrg)

// Session owns the identity, the organization directory and the active organization.
type Session struct {
	orgs      store.OrganizationStore
	directory *Directory
	selector  *Selector

	mu       sync.RWMutex
	identity *models.Identity

	listenersMu  sync.Mutex
	listeners    []registered
	nextListener int
}

type registered struct {
	id int
	fn Listener
}

// New creates a logged-out session.
func New(orgs store.OrganizationStore, persister Persister) *Session {
	return &Session{
		orgs:      orgs,
		directory: NewDirectory(orgs),
		selector:  NewSelector(persister),
	}
}

// Directory exposes the organization directory cache.
func (s *Session) Directory() *Directory { return s.directory }

// Identity returns the logged-in identity.
func (s *Session) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

// Context returns ctx carrying the logged-in identity, for backend calls.
func (s *Session) Context(ctx context.Context) context.Context {
	if identity, ok := s.Identity(); ok {
		return auth.WithIdentity(ctx, identity)
	}
	return ctx
}

// Login makes identity current, restores its persisted active organization and
// refreshes the directory. A different identity logged in before is logged out
// of memory first; its stored pointer is kept for its next login.
//
// When the refresh fails the session stays logged in with whatever pointer was
// restored, and the error is returned.
func (s *Session) Login(ctx context.Context, identity models.Identity) (Outcome, error) {
	if identity.ID == uuid.Nil {
		return DirectoryUnavailable, ErrNoIdentity
	}

	s.mu.Lock()
	switched := s.identity == nil || s.identity.ID != identity.ID
	id := identity
	s.identity = &id
	s.mu.Unlock()

	if switched {
		s.directory.Invalidate()
		s.selector.Reset()
	}

	restored, _ := s.selector.Restore(identity.ID)
	s.notify(restored)

	log.Debug().Str("identity_id", identity.ID.String()).Bool("restored", !restored.IsZero()).Msg("Logged in")

	if _, err := s.RefreshOrgs(ctx); err != nil {
		return s.Outcome(), err
	}
	return s.Outcome(), nil
}

// Logout clears the active organization (storage included) and forgets the identity.
func (s *Session) Logout() error {
	err := s.selector.ClearActive()

	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()

	s.selector.Reset()
	s.directory.Invalidate()
	s.notify(models.ActiveOrg{})

	if err != nil {
		log.Warn().Err(err).Msg("Failed to clear persisted organization on logout")
	}
	return err
}

// Outcome reports where the current identity stands.
// NeedsOnboarding is only reported once a refresh has loaded an empty directory.
func (s *Session) Outcome() Outcome {
	if _, ok := s.selector.Active(); ok {
		return Ready
	}
	identity, ok := s.Identity()
	if !ok {
		return DirectoryUnavailable
	}
	rec, ok := s.directory.Cached(identity.ID)
	switch {
	case !ok:
		return DirectoryUnavailable
	case len(rec.Value) == 0:
		return NeedsOnboarding
	}
	return NeedsSelection
}

// Orgs returns the cached directory of the current identity.
func (s *Session) Orgs() []models.OrgAccess {
	identity, ok := s.Identity()
	if !ok {
		return nil
	}
	rec, ok := s.directory.Cached(identity.ID)
	if !ok {
		return nil
	}
	return rec.Value
}

// Role returns the role held in orgID according to the directory.
func (s *Session) Role(orgID uuid.UUID) (models.Role, bool) {
	identity, ok := s.Identity()
	if !ok {
		return "", false
	}
	access, ok := s.directory.Lookup(identity.ID, orgID)
	return access.Role, ok
}

// Active returns the active organization, if any.
func (s *Session) Active() (models.ActiveOrg, bool) {
	return s.selector.Active()
}

// RefreshOrgs refetches the directory and reconciles the active organization
// with it: a pointer to an organization no longer listed is cleared, and a
// sole organization is activated when none is active.
func (s *Session) RefreshOrgs(ctx context.Context) ([]models.OrgAccess, error) {
	identity, ok := s.Identity()
	if !ok {
		return nil, ErrNoIdentity
	}

	orgs, err := s.directory.Refresh(auth.WithIdentity(ctx, identity), identity.ID)
	if err != nil {
		log.Error().Err(err).Str("identity_id", identity.ID.String()).Msg("Failed to refresh organizations")
		return nil, apperr.Wrap(apperr.KindUnavailable, "Could not load your organizations. Please try again later.", err)
	}

	if current, ok := s.Identity(); !ok || current.ID != identity.ID {
		// logged out or switched identity while fetching
		return orgs, nil
	}

	s.reconcile(ctx, orgs)
	return orgs, nil
}

func (s *Session) reconcile(ctx context.Context, orgs []models.OrgAccess) {
	active, hasActive := s.selector.Active()

	if hasActive {
		i := slices.IndexFunc(orgs, func(o models.OrgAccess) bool { return o.OrgID == active.OrgID })
		switch {
		case i < 0:
			log.Warn().Str("org_id", active.OrgID.String()).Msg("Active organization no longer accessible, clearing")
			telemetry.Incr(ctx, telemetry.GetMetrics().StalePointersClearedTotal)
			if err := s.selector.ClearActive(); err != nil {
				log.Warn().Err(err).Msg("Failed to clear stale organization")
			}
			s.notify(models.ActiveOrg{})
			hasActive = false
		case orgs[i].Name != active.Name:
			if err := s.selector.SetActive(active.OrgID, orgs[i].Name); err != nil {
				log.Warn().Err(err).Msg("Failed to persist renamed organization")
			}
			s.notify(models.ActiveOrg{OrgID: active.OrgID, Name: orgs[i].Name})
		}
	}

	if !hasActive && len(orgs) == 1 {
		if err := s.activate(ctx, orgs[0]); err != nil {
			log.Warn().Err(err).Msg("Failed to persist auto-selected organization")
		}
	}
}

// SwitchOrg makes orgID active. The organization must be in the directory; its
// display name is taken from there.
func (s *Session) SwitchOrg(ctx context.Context, orgID uuid.UUID) error {
	identity, ok := s.Identity()
	if !ok {
		return ErrNoIdentity
	}

	access, ok := s.directory.Lookup(identity.ID, orgID)
	if !ok {
		return ErrNotMember
	}

	if active, ok := s.selector.Active(); ok && active.OrgID == orgID {
		return nil
	}

	return s.activate(ctx, access)
}

func (s *Session) activate(ctx context.Context, access models.OrgAccess) error {
	err := s.selector.SetActive(access.OrgID, access.Name)
	telemetry.Incr(ctx, telemetry.GetMetrics().OrganizationSwitchesTotal)
	log.Debug().Str("org_id", access.OrgID.String()).Str("name", access.Name).Msg("Activated organization")

	// the in-memory pointer changed even if persisting failed
	s.notify(models.ActiveOrg{OrgID: access.OrgID, Name: access.Name})
	return err
}

// ClearOrg deactivates the current organization.
func (s *Session) ClearOrg() error {
	err := s.selector.ClearActive()
	s.notify(models.ActiveOrg{})
	return err
}

// CreateOrganization creates an organization owned by the current identity and
// makes it active.
func (s *Session) CreateOrganization(ctx context.Context, name string, taxID *string) (uuid.UUID, error) {
	identity, ok := s.Identity()
	if !ok {
		return uuid.Nil, ErrNoIdentity
	}

	name = strings.TrimSpace(name)
	if len([]rune(name)) < MinOrgNameLength {
		return uuid.Nil, apperr.Validation("name", fmt.Sprintf("Organization name must have at least %d characters.", MinOrgNameLength))
	}
	if taxID != nil {
		if trimmed := strings.TrimSpace(*taxID); trimmed == "" {
			taxID = nil
		} else {
			taxID = &trimmed
		}
	}

	orgID, err := s.orgs.CreateAndJoin(auth.WithIdentity(ctx, identity), name, taxID)
	if err != nil {
		return uuid.Nil, apperr.FromStore(err)
	}

	return orgID, s.join(ctx, orgID)
}

// AcceptInvite joins the organization of an invite token and makes it active.
func (s *Session) AcceptInvite(ctx context.Context, token string) (uuid.UUID, error) {
	identity, ok := s.Identity()
	if !ok {
		return uuid.Nil, ErrNoIdentity
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, apperr.Validation("token", "Enter the invite token.")
	}
	if !inviteTokenRE.MatchString(token) {
		return uuid.Nil, apperr.Validation("token", "Invalid token (a UUID is expected).")
	}

	orgID, err := s.orgs.AcceptInvite(auth.WithIdentity(ctx, identity), uuid.MustParse(token))
	if err != nil {
		return uuid.Nil, translateInviteError(err)
	}

	return orgID, s.join(ctx, orgID)
}

func translateInviteError(err error) error {
	switch {
	case errors.Is(err, store.ErrInviteExpired):
		return apperr.Wrap(apperr.KindValidation, "This invite has expired. Ask for a new one.", err)
	case errors.Is(err, store.ErrInviteNotFound), errors.Is(err, store.ErrInviteAlreadyUsed):
		return apperr.Wrap(apperr.KindValidation, "Invalid invite token. Check it and try again.", err)
	case errors.Is(err, store.ErrPermissionDenied):
		return apperr.Wrap(apperr.KindPermission, "You do not have permission to accept this invite.", err)
	}
	return apperr.Wrap(apperr.KindUnexpected, "Could not process the invite. Please try again later.", err)
}

// join refreshes the directory after gaining a membership and activates orgID.
func (s *Session) join(ctx context.Context, orgID uuid.UUID) error {
	if _, err := s.RefreshOrgs(ctx); err != nil {
		return err
	}
	if err := s.SwitchOrg(ctx, orgID); err != nil {
		return fmt.Errorf("failed to activate organization: %w", err)
	}
	return nil
}

// CreateInvite issues an invite to orgID granting role, valid for store.DefaultInviteTTL.
// Only Owners and Admins may invite.
func (s *Session) CreateInvite(ctx context.Context, orgID uuid.UUID, role models.Role) (*models.Invite, error) {
	identity, ok := s.Identity()
	if !ok {
		return nil, ErrNoIdentity
	}
	if !role.IsValid() {
		return nil, apperr.Validation("role", "Select a valid role.")
	}
	if held, ok := s.Role(orgID); !ok || !held.CanInvite() {
		return nil, apperr.New(apperr.KindPermission, "Only owners and admins can invite people.")
	}

	invite, err := s.orgs.CreateInvite(auth.WithIdentity(ctx, identity), orgID, role, store.DefaultInviteTTL)
	if err != nil {
		if errors.Is(err, store.ErrPermissionDenied) {
			return nil, apperr.Wrap(apperr.KindPermission, "Only owners and admins can invite people.", err)
		}
		return nil, apperr.FromStore(err)
	}
	return invite, nil
}

// Subscribe registers fn for active organization changes and returns a func
// that unregisters it. Listeners run synchronously, in subscription order.
func (s *Session) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.nextListener++
	id := s.nextListener
	s.listeners = append(s.listeners, registered{id: id, fn: fn})

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(r registered) bool { return r.id == id })
	}
}

func (s *Session) notify(active models.ActiveOrg) {
	s.listenersMu.Lock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l.fn(active)
	}
}
