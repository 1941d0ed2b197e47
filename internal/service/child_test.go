package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

func TestChildService(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewChildService(fakeChildren{store}, fakeLedger{store}, fakeQRCodes{store}, Paging{Default: 50, Max: 1000})

	mom := store.addUser(domain.RoleParent, "mom")
	other := store.addUser(domain.RoleParent, "other")
	vol := store.addUser(domain.RoleVolunteer, "vol")
	ada := store.addChild(mom, "Ada")
	ben := store.addChild(mom, "Ben")
	_, err := fakeLedger{store}.EnsureBalance(ctx, ada.ID)
	require.NoError(t, err)
	_, err = fakeLedger{store}.AdjustBalance(ctx, ada.ID, 250, nil)
	require.NoError(t, err)

	t.Run("parent sees own child", func(t *testing.T) {
		detail, err := svc.Get(ctx, callerFor(mom), ada.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(250), detail.Balance.AmountCents)
		assert.Equal(t, []domain.Sibling{{ID: ben.ID, Name: "Ben"}}, detail.Siblings)
	})

	t.Run("child without balance reads as zero", func(t *testing.T) {
		detail, err := svc.Get(ctx, callerFor(mom), ben.ID)
		require.NoError(t, err)
		assert.Equal(t, ben.ID, detail.Balance.ChildID)
		assert.Zero(t, detail.Balance.AmountCents)
	})

	t.Run("other parents are forbidden", func(t *testing.T) {
		_, err := svc.Get(ctx, callerFor(other), ada.ID)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = svc.Transactions(ctx, callerFor(other), ada.ID, domain.Page{})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("staff see any child", func(t *testing.T) {
		_, err := svc.Get(ctx, callerFor(vol), ada.ID)
		assert.NoError(t, err)
	})

	t.Run("missing child", func(t *testing.T) {
		_, err := svc.Get(ctx, callerFor(vol), uuid.New())
		assert.ErrorIs(t, err, ErrChildNotFound)
	})

	t.Run("list own", func(t *testing.T) {
		details, err := svc.ListOwn(ctx, callerFor(mom))
		require.NoError(t, err)
		require.Len(t, details, 2)
		assert.Equal(t, "Ada", details[0].Child.Name)
		assert.Equal(t, int64(250), details[0].Balance.AmountCents)
		assert.Zero(t, details[1].Balance.AmountCents)

		none, err := svc.ListOwn(ctx, callerFor(other))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("transactions", func(t *testing.T) {
		_, err := fakeLedger{store}.CreateTransaction(ctx, domain.Transaction{ChildID: ada.ID, Type: domain.TransactionDeposit, AmountCents: 250})
		require.NoError(t, err)

		page, err := svc.Transactions(ctx, callerFor(mom), ada.ID, domain.Page{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("lookup by card", func(t *testing.T) {
		_, err := fakeQRCodes{store}.CreateMany(ctx, []string{"QRST2345", "WXYZ6789"})
		require.NoError(t, err)
		_, err = fakeQRCodes{store}.Assign(ctx, "QRST2345", ada.ID)
		require.NoError(t, err)

		detail, err := svc.Lookup(ctx, callerFor(vol), "QRST2345")
		require.NoError(t, err)
		assert.Equal(t, ada.ID, detail.Child.ID)
		assert.Equal(t, "QRST2345", detail.QRCode)

		_, err = svc.Lookup(ctx, callerFor(vol), "WXYZ6789")
		assert.ErrorIs(t, err, ErrChildNotFound)

		_, err = svc.Lookup(ctx, callerFor(vol), "NOPE2345")
		assert.ErrorIs(t, err, ErrQRCodeNotFound)

		_, err = svc.Lookup(ctx, callerFor(mom), "QRST2345")
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
