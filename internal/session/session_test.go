package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contacerta/contacerta/internal/apperr"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/prefs"
	"github.com/contacerta/contacerta/internal/store"
	"github.com/contacerta/contacerta/internal/store/memory"
)

// fakeLister counts fetches and can hold them until released.
type fakeLister struct {
	calls   atomic.Int32
	gate    chan struct{}
	mu      sync.Mutex
	result  []*models.OrgAccess
	failure error
}

func (f *fakeLister) ListAccess(ctx context.Context, identityID uuid.UUID) ([]*models.OrgAccess, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failure != nil {
		return nil, f.failure
	}
	return f.result, nil
}

func (f *fakeLister) set(result []*models.OrgAccess, failure error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = result
	f.failure = failure
}

func TestDirectory(t *testing.T) {
	identityID := uuid.New()
	orgA := &models.OrgAccess{OrgID: uuid.New(), Name: "Zion", Role: models.RoleOwner}
	orgB := &models.OrgAccess{OrgID: uuid.New(), Name: "agape", Role: models.RoleReadOnly}

	t.Run("sorts by name and drops unnamed organizations", func(t *testing.T) {
		lister := &fakeLister{}
		lister.set([]*models.OrgAccess{orgA, {OrgID: uuid.New(), Name: "  "}, orgB}, nil)
		dir := NewDirectory(lister)

		orgs, err := dir.Refresh(context.Background(), identityID)
		require.NoError(t, err)
		require.Len(t, orgs, 2)
		assert.Equal(t, "agape", orgs[0].Name)
		assert.Equal(t, "Zion", orgs[1].Name)

		rec, ok := dir.Cached(identityID)
		require.True(t, ok)
		assert.Equal(t, identityID, rec.Key)
		assert.Equal(t, orgs, rec.Value)
		assert.False(t, rec.FetchedAt.IsZero())

		_, ok = dir.Cached(uuid.New())
		assert.False(t, ok, "cache is keyed by identity")
	})

	t.Run("concurrent refreshes share one fetch", func(t *testing.T) {
		lister := &fakeLister{gate: make(chan struct{})}
		lister.set([]*models.OrgAccess{orgA}, nil)
		dir := NewDirectory(lister)

		var wg sync.WaitGroup
		results := make([][]models.OrgAccess, 5)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				orgs, err := dir.Refresh(context.Background(), identityID)
				assert.NoError(t, err)
				results[i] = orgs
			}()
		}

		require.Eventually(t, func() bool { return lister.calls.Load() == 1 }, time.Second, time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		close(lister.gate)
		wg.Wait()

		assert.Equal(t, int32(1), lister.calls.Load())
		for _, r := range results {
			assert.Len(t, r, 1)
		}
	})

	t.Run("failure keeps previous cache", func(t *testing.T) {
		lister := &fakeLister{}
		lister.set([]*models.OrgAccess{orgA}, nil)
		dir := NewDirectory(lister)

		_, err := dir.Refresh(context.Background(), identityID)
		require.NoError(t, err)

		boom := errors.New("network down")
		lister.set(nil, boom)
		_, err = dir.Refresh(context.Background(), identityID)
		require.ErrorIs(t, err, boom)

		rec, ok := dir.Cached(identityID)
		require.True(t, ok)
		assert.Len(t, rec.Value, 1)
		assert.Equal(t, int32(2), lister.calls.Load(), "no automatic retry")
	})

	t.Run("invalidation wins over a fetch in flight", func(t *testing.T) {
		lister := &fakeLister{gate: make(chan struct{})}
		lister.set([]*models.OrgAccess{orgA}, nil)
		dir := NewDirectory(lister)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = dir.Refresh(context.Background(), identityID)
		}()

		require.Eventually(t, func() bool { return lister.calls.Load() == 1 }, time.Second, time.Millisecond)
		dir.Invalidate()
		close(lister.gate)
		<-done

		_, ok := dir.Cached(identityID)
		assert.False(t, ok)
	})
}

func TestSelector(t *testing.T) {
	identityID := uuid.New()
	orgID := uuid.New()

	t.Run("round trips through storage", func(t *testing.T) {
		store := prefs.NewMemory()
		sel := NewSelector(store)
		sel.Restore(identityID)
		require.NoError(t, sel.SetActive(orgID, "Igreja Central"))

		reloaded := NewSelector(store)
		active, ok := reloaded.Restore(identityID)
		require.True(t, ok)
		assert.Equal(t, models.ActiveOrg{OrgID: orgID, Name: "Igreja Central"}, active)

		got, ok := reloaded.Active()
		require.True(t, ok)
		assert.Equal(t, active, got)
	})

	t.Run("round trips through the file store", func(t *testing.T) {
		store, err := prefs.NewStore(t.TempDir())
		require.NoError(t, err)

		sel := NewSelector(store)
		sel.Restore(identityID)
		require.NoError(t, sel.SetActive(orgID, "Igreja Central"))

		active, ok := NewSelector(store).Restore(identityID)
		require.True(t, ok)
		assert.Equal(t, orgID, active.OrgID)
	})

	t.Run("corrupt values read as absent and are removed", func(t *testing.T) {
		for _, raw := range []string{"{not json", `{"orgId":"nope"}`, `{"orgName":"x"}`, `""`} {
			store := prefs.NewMemory()
			require.NoError(t, store.Set(StorageKey(identityID), raw))

			sel := NewSelector(store)
			active, ok := sel.Restore(identityID)
			assert.False(t, ok, raw)
			assert.True(t, active.IsZero())

			_, exists, _ := store.Get(StorageKey(identityID))
			assert.False(t, exists, raw)
		}
	})

	t.Run("pointers are per identity", func(t *testing.T) {
		store := prefs.NewMemory()
		sel := NewSelector(store)
		sel.Restore(identityID)
		require.NoError(t, sel.SetActive(orgID, "A"))

		_, ok := sel.Restore(uuid.New())
		assert.False(t, ok)
	})

	t.Run("clear removes storage", func(t *testing.T) {
		store := prefs.NewMemory()
		sel := NewSelector(store)
		sel.Restore(identityID)
		require.NoError(t, sel.SetActive(orgID, "A"))
		require.NoError(t, sel.ClearActive())

		_, ok := sel.Active()
		assert.False(t, ok)
		_, exists, _ := store.Get(StorageKey(identityID))
		assert.False(t, exists)
	})

	t.Run("set requires an identity", func(t *testing.T) {
		sel := NewSelector(prefs.NewMemory())
		require.ErrorIs(t, sel.SetActive(orgID, "A"), ErrNoIdentity)
	})
}

type sessionFixture struct {
	backend *memory.Backend
	prefs   *prefs.Memory
	session *Session
	user    models.Identity
}

func newFixture() *sessionFixture {
	backend := memory.NewBackend()
	p := prefs.NewMemory()
	return &sessionFixture{
		backend: backend,
		prefs:   p,
		session: New(backend.Stores().Organizations, p),
		user:    models.Identity{ID: uuid.New(), Email: "u@example.com"},
	}
}

func TestLoginSingleMembershipAutoSelects(t *testing.T) {
	f := newFixture()
	orgID := f.backend.SeedOrganization("Igreja Única", map[uuid.UUID]models.Role{f.user.ID: models.RoleTreasury})

	var seen []models.ActiveOrg
	f.session.Subscribe(func(a models.ActiveOrg) { seen = append(seen, a) })

	outcome, err := f.session.Login(context.Background(), f.user)
	require.NoError(t, err)
	assert.Equal(t, Ready, outcome)

	active, ok := f.session.Active()
	require.True(t, ok)
	assert.Equal(t, orgID, active.OrgID)
	assert.Equal(t, "Igreja Única", active.Name)
	require.NotEmpty(t, seen)
	assert.Equal(t, orgID, seen[len(seen)-1].OrgID)

	// persisted for the next start
	_, exists, _ := f.prefs.Get(StorageKey(f.user.ID))
	assert.True(t, exists)
}

func TestLoginWithoutMembershipsNeedsOnboarding(t *testing.T) {
	f := newFixture()
	f.backend.SeedOrganization("Someone Else's", map[uuid.UUID]models.Role{uuid.New(): models.RoleOwner})

	outcome, err := f.session.Login(context.Background(), f.user)
	require.NoError(t, err)
	assert.Equal(t, NeedsOnboarding, outcome)
	assert.Empty(t, f.session.Orgs())
	_, ok := f.session.Active()
	assert.False(t, ok)
}

// failingOrgs fails every directory fetch.
type failingOrgs struct {
	store.OrganizationStore
}

func (failingOrgs) ListAccess(ctx context.Context, identityID uuid.UUID) ([]*models.OrgAccess, error) {
	return nil, errors.New("connection refused")
}

func TestLoginWhenDirectoryFails(t *testing.T) {
	backend := memory.NewBackend()
	user := models.Identity{ID: uuid.New(), Email: "u@example.com"}
	backend.SeedOrganization("Org A", map[uuid.UUID]models.Role{user.ID: models.RoleOwner})
	backend.SeedOrganization("Org B", map[uuid.UUID]models.Role{user.ID: models.RoleOwner})

	s := New(failingOrgs{backend.Stores().Organizations}, prefs.NewMemory())

	outcome, err := s.Login(context.Background(), user)
	require.Error(t, err)
	assert.Equal(t, DirectoryUnavailable, outcome, "a failed refresh is not an empty directory")
	assert.True(t, apperr.IsKind(err, apperr.KindUnavailable))
}

func TestTwoMembershipsScenario(t *testing.T) {
	f := newFixture()
	orgA := f.backend.SeedOrganization("Org A", map[uuid.UUID]models.Role{f.user.ID: models.RoleOwner})
	orgB := f.backend.SeedOrganization("Org B", map[uuid.UUID]models.Role{f.user.ID: models.RoleReadOnly})

	outcome, err := f.session.Login(context.Background(), f.user)
	require.NoError(t, err)
	assert.Equal(t, NeedsSelection, outcome)

	orgs, err := f.session.RefreshOrgs(context.Background())
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, orgA, orgs[0].OrgID)
	assert.Equal(t, models.RoleOwner, orgs[0].Role)
	assert.Equal(t, orgB, orgs[1].OrgID)
	assert.Equal(t, models.RoleReadOnly, orgs[1].Role)

	_, ok := f.session.Active()
	assert.False(t, ok, "no auto-selection with more than one organization")

	var seen []models.ActiveOrg
	f.session.Subscribe(func(a models.ActiveOrg) { seen = append(seen, a) })

	require.NoError(t, f.session.SwitchOrg(context.Background(), orgB))
	active, _ := f.session.Active()
	assert.Equal(t, models.ActiveOrg{OrgID: orgB, Name: "Org B"}, active)
	assert.Equal(t, []models.ActiveOrg{active}, seen)

	// switching to the active organization is a no-op
	require.NoError(t, f.session.SwitchOrg(context.Background(), orgB))
	assert.Len(t, seen, 1)

	assert.ErrorIs(t, f.session.SwitchOrg(context.Background(), uuid.New()), ErrNotMember)
}

func TestRestoredPointerIsRevalidated(t *testing.T) {
	f := newFixture()
	orgA := f.backend.SeedOrganization("Org A", map[uuid.UUID]models.Role{f.user.ID: models.RoleOwner})
	f.backend.SeedOrganization("Org B", map[uuid.UUID]models.Role{f.user.ID: models.RoleOwner})

	_, err := f.session.Login(context.Background(), f.user)
	require.NoError(t, err)
	require.NoError(t, f.session.SwitchOrg(context.Background(), orgA))

	t.Run("survives restart", func(t *testing.T) {
		restarted := New(f.backend.Stores().Organizations, f.prefs)
		outcome, err := restarted.Login(context.Background(), f.user)
		require.NoError(t, err)
		assert.Equal(t, Ready, outcome)
		active, _ := restarted.Active()
		assert.Equal(t, orgA, active.OrgID)
	})

	t.Run("cleared once the membership is revoked", func(t *testing.T) {
		f.backend.RevokeMembership(orgA, f.user.ID)

		restarted := New(f.backend.Stores().Organizations, f.prefs)
		var seen []models.ActiveOrg
		restarted.Subscribe(func(a models.ActiveOrg) { seen = append(seen, a) })

		outcome, err := restarted.Login(context.Background(), f.user)
		require.NoError(t, err)

		// only Org B is left, so it is auto-selected after the stale pointer is dropped
		assert.Equal(t, Ready, outcome)
		active, _ := restarted.Active()
		assert.Equal(t, "Org B", active.Name)

		require.GreaterOrEqual(t, len(seen), 3)
		assert.Equal(t, orgA, seen[0].OrgID, "restored pointer is published first")
		assert.True(t, seen[1].IsZero(), "stale pointer is cleared")
	})
}

func TestLogout(t *testing.T) {
	f := newFixture()
	f.backend.SeedOrganization("Org A", map[uuid.UUID]models.Role{f.user.ID: models.RoleOwner})

	_, err := f.session.Login(context.Background(), f.user)
	require.NoError(t, err)

	require.NoError(t, f.session.Logout())

	_, ok := f.session.Identity()
	assert.False(t, ok)
	_, ok = f.session.Active()
	assert.False(t, ok)
	assert.Nil(t, f.session.Orgs())
	_, exists, _ := f.prefs.Get(StorageKey(f.user.ID))
	assert.False(t, exists)

	_, err = f.session.RefreshOrgs(context.Background())
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestLoginAsAnotherIdentityInvalidatesCache(t *testing.T) {
	f := newFixture()
	other := models.Identity{ID: uuid.New()}
	f.backend.SeedOrganization("Mine", map[uuid.UUID]models.Role{f.user.ID: models.RoleOwner})
	f.backend.SeedOrganization("Theirs", map[uuid.UUID]models.Role{other.ID: models.RoleOwner})

	_, err := f.session.Login(context.Background(), f.user)
	require.NoError(t, err)
	require.Equal(t, "Mine", f.session.Orgs()[0].Name)

	_, err = f.session.Login(context.Background(), other)
	require.NoError(t, err)
	require.Len(t, f.session.Orgs(), 1)
	assert.Equal(t, "Theirs", f.session.Orgs()[0].Name)
	active, _ := f.session.Active()
	assert.Equal(t, "Theirs", active.Name)
}

func TestCreateOrganization(t *testing.T) {
	f := newFixture()
	_, err := f.session.Login(context.Background(), f.user)
	require.NoError(t, err)

	_, err = f.session.CreateOrganization(context.Background(), "  ab ", nil)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	blank := "   "
	orgID, err := f.session.CreateOrganization(context.Background(), " Igreja Nova ", &blank)
	require.NoError(t, err)

	active, ok := f.session.Active()
	require.True(t, ok)
	assert.Equal(t, orgID, active.OrgID)
	assert.Equal(t, "Igreja Nova", active.Name)

	role, ok := f.session.Role(orgID)
	require.True(t, ok)
	assert.Equal(t, models.RoleOwner, role)
}

func TestInvites(t *testing.T) {
	f := newFixture()
	orgID := f.backend.SeedOrganization("Org A", map[uuid.UUID]models.Role{f.user.ID: models.RoleAdmin})
	_, err := f.session.Login(context.Background(), f.user)
	require.NoError(t, err)

	invite, err := f.session.CreateInvite(context.Background(), orgID, models.RoleSecretary)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), invite.ExpiresAt, time.Minute)

	_, err = f.session.CreateInvite(context.Background(), orgID, models.Role("PASTOR"))
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	guest := New(f.backend.Stores().Organizations, prefs.NewMemory())
	_, err = guest.Login(context.Background(), models.Identity{ID: uuid.New()})
	require.NoError(t, err)

	t.Run("rejects malformed tokens", func(t *testing.T) {
		for _, token := range []string{"", "abc", "0192ab3c-def0-7123-8456-789abcdef012"} {
			_, err := guest.AcceptInvite(context.Background(), token)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), token)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := guest.AcceptInvite(context.Background(), uuid.NewString())
		assert.Equal(t, "Invalid invite token. Check it and try again.", apperr.Message(err))
	})

	t.Run("accept activates the organization", func(t *testing.T) {
		joined, err := guest.AcceptInvite(context.Background(), invite.Token.String())
		require.NoError(t, err)
		assert.Equal(t, orgID, joined)

		active, ok := guest.Active()
		require.True(t, ok)
		assert.Equal(t, orgID, active.OrgID)
		role, _ := guest.Role(orgID)
		assert.Equal(t, models.RoleSecretary, role)
	})

	t.Run("secretary cannot invite", func(t *testing.T) {
		_, err := guest.CreateInvite(context.Background(), orgID, models.RoleReadOnly)
		assert.True(t, apperr.IsKind(err, apperr.KindPermission))
	})
}
