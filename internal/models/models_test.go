package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeParty(t *testing.T) {
	supplierID := uuid.New()
	memberID := uuid.New()

	tests := []struct {
		name     string
		docType  DocumentType
		supplier *uuid.UUID
		member   *uuid.UUID
		wantKind PartyKind
		wantID   uuid.UUID
	}{
		{"payable keeps supplier", DocumentPayable, &supplierID, nil, PartySupplier, supplierID},
		{"payable drops member", DocumentPayable, nil, &memberID, PartyNone, uuid.Nil},
		{"payable with both keeps supplier", DocumentPayable, &supplierID, &memberID, PartySupplier, supplierID},
		{"receivable keeps member", DocumentReceivable, nil, &memberID, PartyMember, memberID},
		{"receivable drops supplier", DocumentReceivable, &supplierID, nil, PartyNone, uuid.Nil},
		{"receivable with both keeps member", DocumentReceivable, &supplierID, &memberID, PartyMember, memberID},
		{"nothing", DocumentPayable, nil, nil, PartyNone, uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			party := NormalizeParty(tt.docType, tt.supplier, tt.member)
			assert.Equal(t, tt.wantKind, party.Kind())

			s, m := party.Columns()
			assert.False(t, s != nil && m != nil, "party must never hold both")
			switch tt.wantKind {
			case PartySupplier:
				require.NotNil(t, s)
				assert.Equal(t, tt.wantID, *s)
			case PartyMember:
				require.NotNil(t, m)
				assert.Equal(t, tt.wantID, *m)
			default:
				assert.Nil(t, s)
				assert.Nil(t, m)
			}

			assert.Equal(t, party, PartyFromColumns(s, m))
		})
	}
}

func TestEffectiveStatus(t *testing.T) {
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	doc := &Document{Status: DocumentOpen, DueDate: due}

	assert.Equal(t, DocumentOpen, doc.EffectiveStatus(due.Add(23*time.Hour)))
	assert.Equal(t, DocumentOverdue, doc.EffectiveStatus(due.AddDate(0, 0, 1)))

	doc.Status = DocumentPaid
	assert.Equal(t, DocumentPaid, doc.EffectiveStatus(due.AddDate(0, 1, 0)))
}

func TestDocumentTypeFinanceKind(t *testing.T) {
	assert.Equal(t, FinanceExpense, DocumentPayable.FinanceKind())
	assert.Equal(t, FinanceIncome, DocumentReceivable.FinanceKind())
	assert.False(t, DocumentType("OTHER").IsValid())
}

func TestAssetCode(t *testing.T) {
	id := uuid.MustParse("0192ab3c-def0-7123-8456-789abcdef012")
	assert.Equal(t, "PAT-0192AB3C", AssetCode(id))
}

func TestParseRole(t *testing.T) {
	for _, in := range []string{"OWNER", "owner", " Owner "} {
		role, err := ParseRole(in)
		require.NoError(t, err)
		assert.Equal(t, RoleOwner, role)
	}

	role, err := ParseRole("read only")
	require.NoError(t, err)
	assert.Equal(t, RoleReadOnly, role)

	_, err = ParseRole("pastor")
	require.Error(t, err)

	assert.True(t, RoleAdmin.CanInvite())
	assert.False(t, RoleTreasury.CanInvite())
	assert.Equal(t, "NOPE", Role("NOPE").Label())
}

func TestParseAddress(t *testing.T) {
	t.Run("blank values", func(t *testing.T) {
		for _, in := range []string{"", "  ", "null", "{}", `{"city":""}`} {
			a, err := ParseAddress(in)
			require.NoError(t, err)
			assert.Nil(t, a, in)
		}
	})

	t.Run("normalizes state and zip", func(t *testing.T) {
		a, err := ParseAddress(`{"street":"Rua A","number":"10","city":"Recife","state":"pe","zipCode":"50000-000"}`)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, "PE", a.State)
		assert.Equal(t, "50000000", a.ZipCode)
		assert.Equal(t, "Rua A, 10 - Recife/PE - 50000000", a.String())
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseAddress(`{"road":"x"}`)
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseAddress(`{"city":`)
		require.Error(t, err)
	})
}

func TestParseBankInfo(t *testing.T) {
	b, err := ParseBankInfo(`{"bank":"Banco do Brasil","accountType":"corrente","pixKey":"a@b.c"}`)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, BankAccountChecking, b.AccountType)

	b, err = ParseBankInfo("")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestInvite(t *testing.T) {
	inv := &Invite{ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, inv.IsExpired())
	assert.False(t, inv.IsAccepted())

	now := time.Now()
	inv.AcceptedAt = &now
	inv.ExpiresAt = now.Add(-time.Minute)
	assert.True(t, inv.IsExpired())
	assert.True(t, inv.IsAccepted())
}
