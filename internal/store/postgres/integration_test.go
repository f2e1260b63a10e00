//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/contacerta/contacerta/internal/auth"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*Backend, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	backend, err := Open(ctx, &Config{
		Pool:        PoolConfig{ConnString: connString},
		AutoMigrate: true,
	})
	require.NoError(t, err)

	cleanup := func() {
		backend.Close()
		_ = container.Terminate(ctx)
	}

	return backend, cleanup
}

func TestIntegration_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	backend, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	stores := backend.Stores()
	alice := auth.WithIdentity(ctx, models.Identity{ID: uuid.New(), Email: "alice@example.com"})
	bob := auth.WithIdentity(ctx, models.Identity{ID: uuid.New(), Email: "bob@example.com"})

	orgA, err := stores.Organizations.CreateAndJoin(alice, "Igreja A", nil)
	require.NoError(t, err)

	t.Run("owner sees membership", func(t *testing.T) {
		identity, _ := auth.IdentityFromContext(alice)
		access, err := stores.Organizations.ListAccess(alice, identity.ID)
		require.NoError(t, err)
		require.Len(t, access, 1)
		require.Equal(t, models.RoleOwner, access[0].Role)
		require.Equal(t, "Igreja A", access[0].Name)
	})

	t.Run("short name rejected", func(t *testing.T) {
		_, err := stores.Organizations.CreateAndJoin(alice, "ab", nil)
		require.True(t, store.IsConstraint(err, store.ConstraintCheck))
	})

	member := &models.Member{OrgID: orgA, FullName: "Maria", Status: models.MemberActive,
		Address: &models.Address{City: "Recife", State: "PE"}}
	require.NoError(t, stores.Members.Create(alice, member))

	t.Run("outsider sees empty list", func(t *testing.T) {
		members, err := stores.Members.List(bob, orgA, store.ListMembersOptions{})
		require.NoError(t, err)
		require.Empty(t, members)

		_, err = stores.Members.Get(bob, orgA, member.ID)
		require.ErrorIs(t, err, store.ErrMemberNotFound)
	})

	t.Run("outsider cannot write", func(t *testing.T) {
		err := stores.Members.Create(bob, &models.Member{OrgID: orgA, FullName: "X", Status: models.MemberActive})
		require.True(t, store.IsConstraint(err, store.ConstraintPermission))
	})

	t.Run("structured address round trips", func(t *testing.T) {
		got, err := stores.Members.Get(alice, orgA, member.ID)
		require.NoError(t, err)
		require.Equal(t, member.Address, got.Address)
	})

	t.Run("invite grants access", func(t *testing.T) {
		invite, err := stores.Organizations.CreateInvite(alice, orgA, models.RoleReadOnly, time.Hour)
		require.NoError(t, err)

		_, err = stores.Organizations.CreateInvite(bob, orgA, models.RoleAdmin, time.Hour)
		require.ErrorIs(t, err, store.ErrPermissionDenied)

		joined, err := stores.Organizations.AcceptInvite(bob, invite.Token)
		require.NoError(t, err)
		require.Equal(t, orgA, joined)

		_, err = stores.Organizations.AcceptInvite(bob, invite.Token)
		require.ErrorIs(t, err, store.ErrInviteAlreadyUsed)

		_, err = stores.Organizations.AcceptInvite(bob, uuid.New())
		require.ErrorIs(t, err, store.ErrInviteNotFound)

		members, err := stores.Members.List(bob, orgA, store.ListMembersOptions{})
		require.NoError(t, err)
		require.Len(t, members, 1)
	})
}

func TestIntegration_CostCentersAndDocuments(t *testing.T) {
	ctx := context.Background()
	backend, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	stores := backend.Stores()
	alice := auth.WithIdentity(ctx, models.Identity{ID: uuid.New()})
	orgID, err := stores.Organizations.CreateAndJoin(alice, "Igreja B", nil)
	require.NoError(t, err)

	louvor := &models.Ministry{OrgID: orgID, Name: "Louvor", Active: true}
	require.NoError(t, stores.Ministries.Create(alice, louvor))

	t.Run("ministry kind without ministry violates check", func(t *testing.T) {
		err := stores.CostCenters.Create(alice, &models.CostCenter{OrgID: orgID, Kind: models.CostCenterMinistry, Name: "Louvor"})
		ce, ok := store.AsConstraint(err)
		require.True(t, ok)
		require.Equal(t, store.CodeCheck, ce.Code)
	})

	cc := &models.CostCenter{OrgID: orgID, Kind: models.CostCenterMinistry, Name: louvor.Name, MinistryID: &louvor.ID}
	require.NoError(t, stores.CostCenters.Create(alice, cc))

	t.Run("second cost center for ministry violates unique", func(t *testing.T) {
		err := stores.CostCenters.Create(alice, &models.CostCenter{OrgID: orgID, Kind: models.CostCenterMinistry, Name: "x", MinistryID: &louvor.ID})
		ce, ok := store.AsConstraint(err)
		require.True(t, ok)
		require.Equal(t, store.CodeUnique, ce.Code)
	})

	t.Run("ministry rename follows to cost center", func(t *testing.T) {
		louvor.Name = "Louvor e Adoração"
		require.NoError(t, stores.Ministries.Update(alice, louvor))
		got, err := stores.CostCenters.Get(alice, orgID, cc.ID)
		require.NoError(t, err)
		require.Equal(t, "Louvor e Adoração", got.Name)
	})

	supplier := &models.Supplier{OrgID: orgID, Kind: models.PersonCompany, Name: "Gráfica", Status: models.SupplierActive}
	require.NoError(t, stores.Suppliers.Create(alice, supplier))

	now := time.Now().UTC().Truncate(24 * time.Hour)
	doc := &models.Document{
		OrgID:        orgID,
		Type:         models.DocumentPayable,
		Description:  "Cordas",
		Amount:       decimal.RequireFromString("89.90"),
		IssueDate:    now,
		DueDate:      now.AddDate(0, 0, 5),
		Status:       models.DocumentOpen,
		CostCenterID: cc.ID,
		Party:        models.SupplierParty(supplier.ID),
	}
	require.NoError(t, stores.Documents.Create(alice, doc))

	t.Run("amount and party round trip", func(t *testing.T) {
		got, err := stores.Documents.Get(alice, orgID, doc.ID)
		require.NoError(t, err)
		require.True(t, doc.Amount.Equal(got.Amount))
		id, ok := got.Party.SupplierID()
		require.True(t, ok)
		require.Equal(t, supplier.ID, id)
	})

	t.Run("deleting cost center leaves document", func(t *testing.T) {
		require.NoError(t, stores.CostCenters.Delete(alice, orgID, cc.ID))
		got, err := stores.Documents.Get(alice, orgID, doc.ID)
		require.NoError(t, err)
		require.Equal(t, cc.ID, got.CostCenterID)
	})

	t.Run("category names unique ignoring case", func(t *testing.T) {
		expense := models.FinanceExpense
		require.NoError(t, stores.Categories.Create(alice, &models.Category{OrgID: orgID, Name: "Aluguel", Scope: models.CategoryFinance, FinanceKind: &expense}))
		err := stores.Categories.Create(alice, &models.Category{OrgID: orgID, Name: "aluguel", Scope: models.CategoryFinance, FinanceKind: &expense})
		require.True(t, store.IsConstraint(err, store.ConstraintUnique))

		found, err := stores.Categories.FindByName(alice, orgID, models.CategoryFinance, &expense, "ALUGUEL")
		require.NoError(t, err)
		require.Equal(t, "Aluguel", found.Name)
	})
}
