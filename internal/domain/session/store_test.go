package session

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/ec-storefront/internal/infrastructure/storage"
	"github.com/example/ec-storefront/internal/infrastructure/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionStore() (*Store, *mocks.MockKeyValue) {
	kv := mocks.NewMockKeyValue()
	return NewStore(kv), kv
}

// ============================================
// Login / Logout Tests
// ============================================

func TestStore_StartsUnauthenticated(t *testing.T) {
	store, _ := newTestSessionStore()

	assert.False(t, store.IsAuthenticated())
}

func TestStore_Login_PersistsFlag(t *testing.T) {
	store, kv := newTestSessionStore()

	require.NoError(t, store.Login())

	assert.True(t, store.IsAuthenticated())
	last, ok := kv.LastSet(StorageKey)
	require.True(t, ok)
	assert.Equal(t, "true", last.Value)
}

func TestStore_Login_VisibleToFreshInstance(t *testing.T) {
	store, kv := newTestSessionStore()
	require.NoError(t, store.Login())

	fresh := NewStore(kv)

	assert.True(t, fresh.IsAuthenticated())
}

func TestStore_Logout_RemovesKey(t *testing.T) {
	store, kv := newTestSessionStore()
	require.NoError(t, store.Login())

	require.NoError(t, store.Logout())

	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, []string{StorageKey}, kv.RemoveCalls)
	_, ok, _ := kv.Get(StorageKey)
	assert.False(t, ok)
	assert.False(t, NewStore(kv).IsAuthenticated())
}

func TestStore_Logout_WhenNotLoggedIn(t *testing.T) {
	store, _ := newTestSessionStore()

	require.NoError(t, store.Logout())
	assert.False(t, store.IsAuthenticated())
}

func TestStore_Login_PersistFailure(t *testing.T) {
	store, kv := newTestSessionStore()
	kv.SetErr = storage.ErrQuotaExceeded

	err := store.Login()

	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
	assert.True(t, store.IsAuthenticated())
}

// ============================================
// Sync Tests
// ============================================

func TestStore_Sync_AnyValueIsTruthy(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"true", "true"},
		{"false literal", "false"},
		{"arbitrary", "yes please"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, kv := newTestSessionStore()
			kv.Put(StorageKey, tt.value)

			require.NoError(t, store.Sync())
			assert.True(t, store.IsAuthenticated())
		})
	}
}

func TestStore_Sync_ReadFailureKeepsFlag(t *testing.T) {
	store, kv := newTestSessionStore()
	require.NoError(t, store.Login())
	kv.GetErr = errors.New("medium unavailable")

	assert.Error(t, store.Sync())
	assert.True(t, store.IsAuthenticated())
}

// ============================================
// External Change Tests
// ============================================

func TestStore_LogoutInOtherContext(t *testing.T) {
	medium := storage.NewMemory()
	defer medium.Close()
	tabA := medium.View("tab-a")
	tabB := medium.View("tab-b")

	sessionA := NewStore(tabA)
	require.NoError(t, sessionA.Login())

	sessionB := NewStore(tabB)
	require.True(t, sessionB.IsAuthenticated())
	unsub := tabB.Subscribe(sessionB.HandleExternalChange)
	defer unsub()

	var notified atomic.Int32
	sessionB.OnExternalChange(func() { notified.Add(1) })

	require.NoError(t, sessionA.Logout())

	assert.Eventually(t, func() bool {
		return !sessionB.IsAuthenticated() && notified.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStore_HandleExternalChange_IgnoresOtherKeys(t *testing.T) {
	store, kv := newTestSessionStore()
	kv.Put(StorageKey, "true")

	store.HandleExternalChange(storage.Change{Key: "cartItems"})

	assert.False(t, store.IsAuthenticated())
}
