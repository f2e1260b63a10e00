package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/contacerta/contacerta/internal/auth"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

func asIdentity(id uuid.UUID) context.Context {
	return auth.WithIdentity(context.Background(), models.Identity{ID: id, Email: id.String() + "@example.com"})
}

func TestOrganizationStore(t *testing.T) {
	b := NewBackend()
	stores := b.Stores()

	alice := uuid.New()
	bob := uuid.New()
	ctx := asIdentity(alice)

	t.Run("create and join grants owner", func(t *testing.T) {
		orgID, err := stores.Organizations.CreateAndJoin(ctx, "Igreja Central", nil)
		require.NoError(t, err)

		access, err := stores.Organizations.ListAccess(ctx, alice)
		require.NoError(t, err)
		require.Len(t, access, 1)
		require.Equal(t, orgID, access[0].OrgID)
		require.Equal(t, models.RoleOwner, access[0].Role)
	})

	t.Run("create without identity", func(t *testing.T) {
		_, err := stores.Organizations.CreateAndJoin(context.Background(), "Anon", nil)
		require.ErrorIs(t, err, store.ErrNoIdentity)
	})

	t.Run("list access sorted by name", func(t *testing.T) {
		_, err := stores.Organizations.CreateAndJoin(ctx, "Assembleia", nil)
		require.NoError(t, err)

		access, err := stores.Organizations.ListAccess(ctx, alice)
		require.NoError(t, err)
		require.Len(t, access, 2)
		require.Equal(t, "Assembleia", access[0].Name)
		require.Equal(t, "Igreja Central", access[1].Name)
	})

	t.Run("get is scoped to members", func(t *testing.T) {
		access, err := stores.Organizations.ListAccess(ctx, alice)
		require.NoError(t, err)

		_, err = stores.Organizations.Get(ctx, access[0].OrgID)
		require.NoError(t, err)

		_, err = stores.Organizations.Get(asIdentity(bob), access[0].OrgID)
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})

	t.Run("invite lifecycle", func(t *testing.T) {
		access, err := stores.Organizations.ListAccess(ctx, alice)
		require.NoError(t, err)
		orgID := access[0].OrgID

		_, err = stores.Organizations.CreateInvite(asIdentity(bob), orgID, models.RoleReadOnly, 0)
		require.ErrorIs(t, err, store.ErrPermissionDenied)

		invite, err := stores.Organizations.CreateInvite(ctx, orgID, models.RoleReadOnly, time.Hour)
		require.NoError(t, err)

		joined, err := stores.Organizations.AcceptInvite(asIdentity(bob), invite.Token)
		require.NoError(t, err)
		require.Equal(t, orgID, joined)

		bobAccess, err := stores.Organizations.ListAccess(asIdentity(bob), bob)
		require.NoError(t, err)
		require.Len(t, bobAccess, 1)
		require.Equal(t, models.RoleReadOnly, bobAccess[0].Role)

		_, err = stores.Organizations.AcceptInvite(asIdentity(bob), invite.Token)
		require.ErrorIs(t, err, store.ErrInviteAlreadyUsed)

		_, err = stores.Organizations.AcceptInvite(asIdentity(bob), uuid.New())
		require.ErrorIs(t, err, store.ErrInviteNotFound)
	})

	t.Run("expired invite", func(t *testing.T) {
		access, err := stores.Organizations.ListAccess(ctx, alice)
		require.NoError(t, err)

		invite, err := stores.Organizations.CreateInvite(ctx, access[0].OrgID, models.RoleAdmin, time.Hour)
		require.NoError(t, err)

		b.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { b.now = time.Now }()

		_, err = stores.Organizations.AcceptInvite(asIdentity(uuid.New()), invite.Token)
		require.ErrorIs(t, err, store.ErrInviteExpired)
	})
}

func TestRowLevelSecurity(t *testing.T) {
	b := NewBackend()
	stores := b.Stores()

	alice := uuid.New()
	mallory := uuid.New()
	orgID := b.SeedOrganization("Org A", map[uuid.UUID]models.Role{alice: models.RoleOwner})

	err := stores.Members.Create(asIdentity(alice), &models.Member{OrgID: orgID, FullName: "Maria", Status: models.MemberActive})
	require.NoError(t, err)

	t.Run("non-member sees no rows", func(t *testing.T) {
		members, err := stores.Members.List(asIdentity(mallory), orgID, store.ListMembersOptions{})
		require.NoError(t, err)
		require.Empty(t, members)
	})

	t.Run("non-member cannot insert", func(t *testing.T) {
		err := stores.Members.Create(asIdentity(mallory), &models.Member{OrgID: orgID, FullName: "X", Status: models.MemberActive})
		require.True(t, store.IsConstraint(err, store.ConstraintPermission))
	})

	t.Run("revoked member loses access", func(t *testing.T) {
		b.RevokeMembership(orgID, alice)
		members, err := stores.Members.List(asIdentity(alice), orgID, store.ListMembersOptions{})
		require.NoError(t, err)
		require.Empty(t, members)
	})
}

func TestMemberStore(t *testing.T) {
	b := NewBackend()
	stores := b.Stores()
	alice := uuid.New()
	ctx := asIdentity(alice)
	orgID := b.SeedOrganization("Org A", map[uuid.UUID]models.Role{alice: models.RoleSecretary})

	email := "joao@example.com"
	joao := &models.Member{OrgID: orgID, FullName: "João Silva", Email: &email, Status: models.MemberActive}
	require.NoError(t, stores.Members.Create(ctx, joao))
	require.NotEqual(t, uuid.Nil, joao.ID)
	require.NoError(t, stores.Members.Create(ctx, &models.Member{OrgID: orgID, FullName: "Ana Souza", Status: models.MemberVisitor}))

	t.Run("list sorted and filtered", func(t *testing.T) {
		all, err := stores.Members.List(ctx, orgID, store.ListMembersOptions{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Equal(t, "Ana Souza", all[0].FullName)

		visitors, err := stores.Members.List(ctx, orgID, store.ListMembersOptions{Status: models.MemberVisitor})
		require.NoError(t, err)
		require.Len(t, visitors, 1)

		byEmail, err := stores.Members.List(ctx, orgID, store.ListMembersOptions{Search: "JOAO@"})
		require.NoError(t, err)
		require.Len(t, byEmail, 1)
		require.Equal(t, joao.ID, byEmail[0].ID)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		err := stores.Members.Create(ctx, &models.Member{OrgID: orgID, FullName: "Z", Status: "GONE"})
		require.True(t, store.IsConstraint(err, store.ConstraintCheck))
	})

	t.Run("replace ministries", func(t *testing.T) {
		louvor := &models.Ministry{OrgID: orgID, Name: "Louvor", Active: true}
		infantil := &models.Ministry{OrgID: orgID, Name: "Infantil", Active: true}
		require.NoError(t, stores.Ministries.Create(ctx, louvor))
		require.NoError(t, stores.Ministries.Create(ctx, infantil))

		require.NoError(t, stores.Members.ReplaceMinistries(ctx, orgID, joao.ID, []uuid.UUID{louvor.ID, infantil.ID, louvor.ID}))
		ids, err := stores.Members.ListMinistries(ctx, orgID, joao.ID)
		require.NoError(t, err)
		require.ElementsMatch(t, []uuid.UUID{louvor.ID, infantil.ID}, ids)

		require.NoError(t, stores.Members.ReplaceMinistries(ctx, orgID, joao.ID, []uuid.UUID{infantil.ID}))
		ids, err = stores.Members.ListMinistries(ctx, orgID, joao.ID)
		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{infantil.ID}, ids)

		err = stores.Members.ReplaceMinistries(ctx, orgID, joao.ID, []uuid.UUID{uuid.New()})
		require.True(t, store.IsConstraint(err, store.ConstraintForeignKey))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, stores.Members.Delete(ctx, orgID, joao.ID))
		_, err := stores.Members.Get(ctx, orgID, joao.ID)
		require.ErrorIs(t, err, store.ErrMemberNotFound)
		require.ErrorIs(t, stores.Members.Delete(ctx, orgID, joao.ID), store.ErrMemberNotFound)
	})
}

func TestCostCenterStore(t *testing.T) {
	b := NewBackend()
	stores := b.Stores()
	alice := uuid.New()
	ctx := asIdentity(alice)
	orgID := b.SeedOrganization("Org A", map[uuid.UUID]models.Role{alice: models.RoleTreasury})

	louvor := &models.Ministry{OrgID: orgID, Name: "Louvor", Active: true}
	require.NoError(t, stores.Ministries.Create(ctx, louvor))

	t.Run("ministry kind requires ministry", func(t *testing.T) {
		err := stores.CostCenters.Create(ctx, &models.CostCenter{OrgID: orgID, Kind: models.CostCenterMinistry, Name: "Louvor"})
		ce, ok := store.AsConstraint(err)
		require.True(t, ok)
		require.Equal(t, store.CodeCheck, ce.Code)
	})

	t.Run("event kind rejects ministry", func(t *testing.T) {
		err := stores.CostCenters.Create(ctx, &models.CostCenter{OrgID: orgID, Kind: models.CostCenterEvent, Name: "Retiro", MinistryID: &louvor.ID})
		require.True(t, store.IsConstraint(err, store.ConstraintCheck))
	})

	t.Run("unknown ministry", func(t *testing.T) {
		missing := uuid.New()
		err := stores.CostCenters.Create(ctx, &models.CostCenter{OrgID: orgID, Kind: models.CostCenterMinistry, Name: "X", MinistryID: &missing})
		require.True(t, store.IsConstraint(err, store.ConstraintForeignKey))
	})

	t.Run("one cost center per ministry", func(t *testing.T) {
		require.NoError(t, stores.CostCenters.Create(ctx, &models.CostCenter{OrgID: orgID, Kind: models.CostCenterMinistry, Name: "Louvor", MinistryID: &louvor.ID}))
		err := stores.CostCenters.Create(ctx, &models.CostCenter{OrgID: orgID, Kind: models.CostCenterMinistry, Name: "Louvor", MinistryID: &louvor.ID})
		require.True(t, store.IsConstraint(err, store.ConstraintUnique))
	})

	t.Run("ministry with cost center cannot be deleted", func(t *testing.T) {
		err := stores.Ministries.Delete(ctx, orgID, louvor.ID)
		require.True(t, store.IsConstraint(err, store.ConstraintForeignKey))
	})

	t.Run("renaming ministry renames cost center", func(t *testing.T) {
		louvor.Name = "Louvor e Adoração"
		require.NoError(t, stores.Ministries.Update(ctx, louvor))

		centers, err := stores.CostCenters.List(ctx, orgID, store.ListCostCentersOptions{Kind: models.CostCenterMinistry})
		require.NoError(t, err)
		require.Len(t, centers, 1)
		require.Equal(t, "Louvor e Adoração", centers[0].Name)
	})
}

func TestDocumentStore(t *testing.T) {
	b := NewBackend()
	stores := b.Stores()
	alice := uuid.New()
	ctx := asIdentity(alice)
	orgID := b.SeedOrganization("Org A", map[uuid.UUID]models.Role{alice: models.RoleTreasury})

	retiro := &models.CostCenter{OrgID: orgID, Kind: models.CostCenterEvent, Name: "Retiro"}
	require.NoError(t, stores.CostCenters.Create(ctx, retiro))
	supplier := &models.Supplier{OrgID: orgID, Kind: models.PersonCompany, Name: "Gráfica", Status: models.SupplierActive}
	require.NoError(t, stores.Suppliers.Create(ctx, supplier))

	newDoc := func(party models.DocumentParty) *models.Document {
		now := time.Now()
		return &models.Document{
			OrgID:        orgID,
			Type:         models.DocumentPayable,
			Description:  "Impressão",
			Amount:       decimal.RequireFromString("150.00"),
			IssueDate:    now,
			DueDate:      now.AddDate(0, 0, 10),
			Status:       models.DocumentOpen,
			CostCenterID: retiro.ID,
			Party:        party,
		}
	}

	t.Run("payable with supplier", func(t *testing.T) {
		doc := newDoc(models.SupplierParty(supplier.ID))
		require.NoError(t, stores.Documents.Create(ctx, doc))

		got, err := stores.Documents.Get(ctx, orgID, doc.ID)
		require.NoError(t, err)
		id, ok := got.Party.SupplierID()
		require.True(t, ok)
		require.Equal(t, supplier.ID, id)
		require.True(t, doc.Amount.Equal(got.Amount))
	})

	t.Run("payable with member rejected", func(t *testing.T) {
		err := stores.Documents.Create(ctx, newDoc(models.MemberParty(uuid.New())))
		require.True(t, store.IsConstraint(err, store.ConstraintCheck))
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		doc := newDoc(models.NoParty())
		doc.Amount = decimal.Zero
		require.True(t, store.IsConstraint(stores.Documents.Create(ctx, doc), store.ConstraintCheck))
	})

	t.Run("deleting cost center keeps documents", func(t *testing.T) {
		n, err := stores.Documents.CountByCostCenter(ctx, orgID, retiro.ID)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		require.NoError(t, stores.CostCenters.Delete(ctx, orgID, retiro.ID))

		docs, err := stores.Documents.List(ctx, orgID, store.ListDocumentsOptions{})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		require.Equal(t, retiro.ID, docs[0].CostCenterID)
	})

	t.Run("supplier referenced by documents cannot be deleted", func(t *testing.T) {
		err := stores.Suppliers.Delete(ctx, orgID, supplier.ID)
		require.True(t, store.IsConstraint(err, store.ConstraintForeignKey))
	})
}

func TestCategoryAndAssetStores(t *testing.T) {
	b := NewBackend()
	stores := b.Stores()
	alice := uuid.New()
	ctx := asIdentity(alice)
	orgID := b.SeedOrganization("Org A", map[uuid.UUID]models.Role{alice: models.RoleAdmin})

	expense := models.FinanceExpense
	cat := &models.Category{OrgID: orgID, Name: "Aluguel", Scope: models.CategoryFinance, FinanceKind: &expense}
	require.NoError(t, stores.Categories.Create(ctx, cat))

	t.Run("category names unique ignoring case", func(t *testing.T) {
		err := stores.Categories.Create(ctx, &models.Category{OrgID: orgID, Name: "ALUGUEL", Scope: models.CategoryFinance, FinanceKind: &expense})
		require.True(t, store.IsConstraint(err, store.ConstraintUnique))

		found, err := stores.Categories.FindByName(ctx, orgID, models.CategoryFinance, &expense, "aluguel")
		require.NoError(t, err)
		require.Equal(t, cat.ID, found.ID)
	})

	t.Run("asset codes unique per org", func(t *testing.T) {
		a := &models.Asset{OrgID: orgID, Code: "PAT-0001", Name: "Projetor", Status: models.AssetInUse, CategoryID: &cat.ID}
		require.NoError(t, stores.Assets.Create(ctx, a))

		dup := &models.Asset{OrgID: orgID, Code: "PAT-0001", Name: "Mesa", Status: models.AssetInStorage}
		require.True(t, store.IsConstraint(stores.Assets.Create(ctx, dup), store.ConstraintUnique))

		other := b.SeedOrganization("Org B", map[uuid.UUID]models.Role{alice: models.RoleAdmin})
		require.NoError(t, stores.Assets.Create(ctx, &models.Asset{OrgID: other, Code: "PAT-0001", Name: "Mesa", Status: models.AssetInStorage}))
	})

	t.Run("deleting category clears references", func(t *testing.T) {
		require.NoError(t, stores.Categories.Delete(ctx, orgID, cat.ID))
		assets, err := stores.Assets.List(ctx, orgID, store.ListAssetsOptions{})
		require.NoError(t, err)
		require.Len(t, assets, 1)
		require.Nil(t, assets[0].CategoryID)
	})
}
