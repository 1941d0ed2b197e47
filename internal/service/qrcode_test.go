package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

type qrFixture struct {
	store    *memStore
	svc      *QRCodeService
	renderer *fakeRenderer
	recorder *fakeRecorder
	admin    domain.Caller
	parent   domain.User
}

func newQRFixture(t *testing.T) *qrFixture {
	t.Helper()

	store := newMemStore()
	f := &qrFixture{
		store:    store,
		renderer: &fakeRenderer{},
		recorder: newFakeRecorder(),
	}
	f.svc = NewQRCodeService(
		QRRules{MaxBatch: 1000, CodeLength: 8, ContentPrefix: "https://kids.example.org/c/"},
		store, fakeQRCodes{store}, fakeChildren{store}, fakeAudit{store}, f.renderer, f.recorder,
		Paging{Default: 50, Max: 1000},
	)
	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	f.admin = callerFor(store.addUser(domain.RoleAdmin, "alice"))
	f.parent = store.addUser(domain.RoleParent, "paula")

	return f
}

// scripted returns codes from a fixed list, in order.
func scripted(codes ...string) func(int) (string, error) {
	i := 0
	return func(int) (string, error) {
		if i >= len(codes) {
			return "", errors.New("script exhausted")
		}
		c := codes[i]
		i++

		return c, nil
	}
}

func TestRandomCode(t *testing.T) {
	pattern := regexp.MustCompile("^[" + domain.QRCodeAlphabet + "]{8}$")
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := randomCode(8)
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestQRCodeService_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates distinct codes", func(t *testing.T) {
		f := newQRFixture(t)

		codes, err := f.svc.Generate(ctx, f.admin, 5)
		require.NoError(t, err)
		require.Len(t, codes, 5)

		again, err := f.svc.Generate(ctx, f.admin, 5)
		require.NoError(t, err)
		require.Len(t, again, 5)

		distinct := map[string]bool{}
		for _, c := range append(codes, again...) {
			distinct[c.Code] = true
		}
		assert.Len(t, distinct, 10)
		assert.Equal(t, 10, f.recorder.generated)
	})

	t.Run("collisions are replaced", func(t *testing.T) {
		f := newQRFixture(t)
		_, err := fakeQRCodes{f.store}.CreateMany(ctx, []string{"AAAAAAAA"})
		require.NoError(t, err)
		f.svc.random = scripted("AAAAAAAA", "BBBBBBBB", "BBBBBBBB", "CCCCCCCC")

		codes, err := f.svc.Generate(ctx, f.admin, 2)
		require.NoError(t, err)
		require.Len(t, codes, 2)
		assert.Equal(t, "BBBBBBBB", codes[0].Code)
		assert.Equal(t, "CCCCCCCC", codes[1].Code)
	})

	t.Run("gives up when codes keep colliding", func(t *testing.T) {
		f := newQRFixture(t)
		_, err := fakeQRCodes{f.store}.CreateMany(ctx, []string{"AAAAAAAA"})
		require.NoError(t, err)
		f.svc.random = func(int) (string, error) { return "AAAAAAAA", nil }

		_, err = f.svc.Generate(ctx, f.admin, 1)
		assert.Error(t, err)
	})

	t.Run("count bounds", func(t *testing.T) {
		f := newQRFixture(t)

		_, err := f.svc.Generate(ctx, f.admin, 0)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = f.svc.Generate(ctx, f.admin, 1001)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("parents are forbidden", func(t *testing.T) {
		f := newQRFixture(t)

		_, err := f.svc.Generate(ctx, callerFor(f.parent), 1)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestQRCodeService_AssignAndUnassign(t *testing.T) {
	ctx := context.Background()
	f := newQRFixture(t)
	ada := f.store.addChild(f.parent, "Ada")
	ben := f.store.addChild(f.parent, "Ben")
	_, err := fakeQRCodes{f.store}.CreateMany(ctx, []string{"ABCD2345", "EFGH6789"})
	require.NoError(t, err)

	qr, err := f.svc.Assign(ctx, f.admin, "abcd2345", ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", qr.ChildName)
	require.NotNil(t, qr.ChildID)
	assert.Equal(t, ada.ID, *qr.ChildID)

	_, err = f.svc.Assign(ctx, f.admin, "EFGH6789", ada.ID)
	assert.ErrorIs(t, err, ErrChildHasQRCode)

	_, err = f.svc.Assign(ctx, f.admin, "ABCD2345", ben.ID)
	assert.ErrorIs(t, err, ErrQRCodeTaken)

	_, err = f.svc.Assign(ctx, f.admin, "ABCD2345", uuid.New())
	assert.ErrorIs(t, err, ErrChildNotFound)

	released, err := f.svc.Unassign(ctx, f.admin, "ABCD2345")
	require.NoError(t, err)
	assert.False(t, released.Assigned())

	_, err = f.svc.Assign(ctx, f.admin, "ABCD2345", ben.ID)
	assert.NoError(t, err)

	_, err = f.svc.Unassign(ctx, f.admin, "ZZZZ2345")
	assert.ErrorIs(t, err, ErrQRCodeNotFound)
}

func TestQRCodeService_Print(t *testing.T) {
	ctx := context.Background()
	f := newQRFixture(t)
	codes, err := fakeQRCodes{f.store}.CreateMany(ctx, []string{"ABCD2345", "EFGH6789"})
	require.NoError(t, err)

	t.Run("unknown id prints nothing", func(t *testing.T) {
		_, err := f.svc.Print(ctx, f.admin, []uuid.UUID{codes[0].ID, uuid.New()})
		assert.ErrorIs(t, err, ErrQRCodeNotFound)

		page, err := f.svc.List(ctx, domain.QRCodeQuery{Printed: ptrTo(true)})
		require.NoError(t, err)
		assert.Zero(t, page.Total)
	})

	t.Run("renders in request order and marks printed", func(t *testing.T) {
		pdf, err := f.svc.Print(ctx, f.admin, []uuid.UUID{codes[1].ID, codes[0].ID, codes[1].ID})
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(pdf[:4]))

		require.Len(t, f.renderer.cards, 2)
		assert.Equal(t, "EFGH6789", f.renderer.cards[0].Code)
		assert.Equal(t, "https://kids.example.org/c/EFGH6789", f.renderer.cards[0].Content)
		assert.Equal(t, "ABCD2345", f.renderer.cards[1].Code)

		page, err := f.svc.List(ctx, domain.QRCodeQuery{Printed: ptrTo(true)})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		require.NotNil(t, page.Data[0].PrintedAt)
	})

	t.Run("render failure leaves codes unprinted", func(t *testing.T) {
		g := newQRFixture(t)
		created, err := fakeQRCodes{g.store}.CreateMany(ctx, []string{"JKMN2345"})
		require.NoError(t, err)
		g.renderer.err = errors.New("boom")

		_, err = g.svc.Print(ctx, g.admin, []uuid.UUID{created[0].ID})
		require.Error(t, err)

		page, err := g.svc.List(ctx, domain.QRCodeQuery{Printed: ptrTo(false)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("empty request", func(t *testing.T) {
		_, err := f.svc.Print(ctx, f.admin, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func ptrTo[T any](v T) *T {
	return &v
}
