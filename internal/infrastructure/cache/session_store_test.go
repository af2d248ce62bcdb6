package cache

import (
	"context"
	"testing"
	"time"

	"github.com/datapadi/web/internal/domain/purchase"
	"github.com/datapadi/web/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAirtimeSession(t *testing.T, owner string) *purchase.Session {
	t.Helper()
	s, err := purchase.NewSession(owner, purchase.KindAirtime)
	require.NoError(t, err)
	require.NoError(t, s.SelectProvider(purchase.Provider{Code: "MTN", Name: "MTN"}))
	s.Draft.Amount = decimal.NewFromInt(500)
	s.Draft.Phone = "08031234567"
	return s
}

func TestInMemorySessionStore_SaveGet(t *testing.T) {
	store := NewInMemorySessionStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	s := newAirtimeSession(t, "user-1")
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "user-1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, purchase.KindAirtime, got.Kind)
	assert.Equal(t, "MTN", got.Draft.Provider.Code)
	assert.True(t, decimal.NewFromInt(500).Equal(got.Draft.Amount))
	assert.Equal(t, "08031234567", got.Draft.Phone)
}

func TestInMemorySessionStore_ReturnsCopies(t *testing.T) {
	store := NewInMemorySessionStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	s := newAirtimeSession(t, "user-1")
	require.NoError(t, store.Save(ctx, s))

	s.Draft.Phone = "changed"
	got, err := store.Get(ctx, "user-1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, "08031234567", got.Draft.Phone)
}

func TestInMemorySessionStore_ScopedToOwner(t *testing.T) {
	store := NewInMemorySessionStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	s := newAirtimeSession(t, "user-1")
	require.NoError(t, store.Save(ctx, s))

	_, err := store.Get(ctx, "user-2", s.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInMemorySessionStore_MissingAndDeleted(t *testing.T) {
	store := NewInMemorySessionStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	_, err := store.Get(ctx, "user-1", uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	s := newAirtimeSession(t, "user-1")
	require.NoError(t, store.Save(ctx, s))
	require.NoError(t, store.Delete(ctx, "user-1", s.ID))

	_, err = store.Get(ctx, "user-1", s.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInMemorySessionStore_Expires(t *testing.T) {
	store := NewInMemorySessionStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	now := time.Now()
	store.sessions.now = func() time.Time { return now }

	s := newAirtimeSession(t, "user-1")
	require.NoError(t, store.Save(ctx, s))

	now = now.Add(30 * time.Second)
	require.NoError(t, store.Save(ctx, s), "saving slides the expiry")

	now = now.Add(45 * time.Second)
	_, err := store.Get(ctx, "user-1", s.ID)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "user-1", s.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
