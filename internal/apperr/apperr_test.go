package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contacerta/contacerta/internal/store"
)

func TestFromStore(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      Kind
		message   string
		retryable bool
	}{
		{"not null", store.NewConstraintError(store.ConstraintNotNull, "full_name"), KindValidation, MsgRequired, false},
		{"foreign key", store.NewConstraintError(store.ConstraintForeignKey, "documents_member_fkey"), KindConflict, MsgReference, false},
		{"unique", store.NewConstraintError(store.ConstraintUnique, "assets_org_id_code_key"), KindConflict, MsgDuplicate, false},
		{"check", store.NewConstraintError(store.ConstraintCheck, "documents_amount_check"), KindValidation, MsgInvalid, false},
		{"row security", store.NewConstraintError(store.ConstraintPermission, ""), KindPermission, MsgPermission, false},
		{"not found", fmt.Errorf("failed: %w", store.ErrSupplierNotFound), KindNotFound, MsgNotFound, false},
		{"permission", store.ErrPermissionDenied, KindPermission, MsgPermission, false},
		{"unavailable", fmt.Errorf("%w: dial tcp", store.ErrUnavailable), KindUnavailable, MsgUnavailable, true},
		{"deadline", context.DeadlineExceeded, KindUnavailable, MsgUnavailable, true},
		{"unknown", errors.New("strange"), KindUnexpected, MsgGeneric, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStore(tt.err)
			e, ok := As(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.message, e.Error())
			assert.Equal(t, tt.retryable, e.Retryable())
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("nil", func(t *testing.T) {
		require.NoError(t, FromStore(nil))
	})

	t.Run("already translated", func(t *testing.T) {
		orig := Validation("name", "Name is required.")
		require.Same(t, orig, FromStore(orig))
	})

	t.Run("not null keeps the column", func(t *testing.T) {
		e, _ := As(FromStore(store.NewConstraintError(store.ConstraintNotNull, "name")))
		assert.Equal(t, "name", e.Field)
	})
}

func TestMessage(t *testing.T) {
	assert.Empty(t, Message(nil))
	assert.Equal(t, MsgGeneric, Message(errors.New("raw")))
	assert.Equal(t, "Name is required.", Message(fmt.Errorf("create: %w", Validation("name", "Name is required."))))
	assert.True(t, IsKind(New(KindConflict, "x"), KindConflict))
	assert.False(t, IsKind(errors.New("x"), KindConflict))
	assert.Equal(t, "not_found", KindNotFound.String())
}
