package order

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/ec-storefront/internal/domain/catalog"
	"github.com/example/ec-storefront/internal/domain/snapshot"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
	"github.com/example/ec-storefront/internal/infrastructure/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 30, 0, 250_000_000, time.UTC)

func newTestOrderStore() (*Store, *mocks.MockKeyValue) {
	kv := mocks.NewMockKeyValue()
	store := NewStore(kv, WithClock(func() time.Time { return fixedNow }))
	return store, kv
}

func testProduct(id int64) catalog.Product {
	return testPricedProduct(id, "49.9")
}

func testPricedProduct(id int64, price string) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     "Lamp",
		Price:    catalog.RequirePrice(price),
		Category: catalog.Category{ID: 2, Name: "Home"},
	}
}

func persistedOrders(t *testing.T, kv *mocks.MockKeyValue) []Record {
	t.Helper()
	raw, ok, err := kv.Get(StorageKey)
	require.NoError(t, err)
	require.True(t, ok, "orders were never persisted")
	var records []Record
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	return records
}

// ============================================
// Status Tests
// ============================================

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Status
		wantErr  bool
	}{
		{"empty defaults to pending", "", StatusPending, false},
		{"pending", "pending", StatusPending, false},
		{"shipped", "shipped", StatusShipped, false},
		{"delivered", "delivered", StatusDelivered, false},
		{"cancelled", "cancelled", StatusCancelled, false},
		{"unknown", "lost", "", true},
		{"wrong case", "Shipped", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := ParseStatus(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, st)
		})
	}
}

// ============================================
// AddOrder Tests
// ============================================

func TestStore_AddOrder_DefaultsToPending(t *testing.T) {
	store, kv := newTestOrderStore()

	record, err := store.AddOrder(testProduct(1), "")

	require.NoError(t, err)
	assert.Equal(t, StatusPending, record.Status)
	assert.Equal(t, fixedNow.UnixMilli(), record.ID)
	assert.Equal(t, "2024-03-01T12:30:00.250Z", record.CreatedAt)
	assert.Equal(t, int64(1), record.Product.ID)

	persisted := persistedOrders(t, kv)
	require.Len(t, persisted, 1)
	assert.Equal(t, record.ID, persisted[0].ID)
	assert.Equal(t, StatusPending, persisted[0].Status)
}

func TestStore_AddOrder_ExplicitStatus(t *testing.T) {
	store, _ := newTestOrderStore()

	record, err := store.AddOrder(testProduct(1), StatusShipped)

	require.NoError(t, err)
	assert.Equal(t, StatusShipped, record.Status)
}

func TestStore_AddOrder_InvalidStatus(t *testing.T) {
	store, kv := newTestOrderStore()

	_, err := store.AddOrder(testProduct(1), Status("lost"))

	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, store.Orders())
	assert.Empty(t, kv.SetCalls)
}

func TestStore_AddOrder_SameMillisecondGetsDistinctIDs(t *testing.T) {
	store, _ := newTestOrderStore()

	first, err := store.AddOrder(testProduct(1), "")
	require.NoError(t, err)
	second, err := store.AddOrder(testProduct(2), "")
	require.NoError(t, err)

	assert.Equal(t, first.ID+1, second.ID)
	assert.Len(t, store.Orders(), 2)
}

func TestStore_AddOrder_CreatedTimeParses(t *testing.T) {
	store, _ := newTestOrderStore()

	record, err := store.AddOrder(testProduct(1), "")
	require.NoError(t, err)

	created, err := record.CreatedTime()
	require.NoError(t, err)
	assert.True(t, created.Equal(fixedNow))
}

// ============================================
// UpdateStatus Tests
// ============================================

func TestStore_UpdateStatus_ChangesOnlyStatus(t *testing.T) {
	store, kv := newTestOrderStore()
	record, err := store.AddOrder(testProduct(1), "")
	require.NoError(t, err)

	found, err := store.UpdateStatus(record.ID, StatusShipped)

	require.NoError(t, err)
	assert.True(t, found)
	updated, ok := store.Get(record.ID)
	require.True(t, ok)
	assert.Equal(t, StatusShipped, updated.Status)
	assert.Equal(t, record.ID, updated.ID)
	assert.Equal(t, record.CreatedAt, updated.CreatedAt)
	assert.Equal(t, record.Product, updated.Product)

	persisted := persistedOrders(t, kv)
	assert.Equal(t, StatusShipped, persisted[0].Status)
}

func TestStore_UpdateStatus_MissingIDPersistsUnchanged(t *testing.T) {
	store, kv := newTestOrderStore()
	_, err := store.AddOrder(testProduct(1), "")
	require.NoError(t, err)
	before := store.Orders()

	found, err := store.UpdateStatus(42, StatusDelivered)

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, before, store.Orders())
	assert.Len(t, kv.SetCalls, 2)
}

func TestStore_UpdateStatus_FirstMatchOnly(t *testing.T) {
	kv := mocks.NewMockKeyValue()
	kv.Put(StorageKey, `[
		{"id":7,"product":{"id":1,"price":"1"},"status":"pending","created_at":"2024-01-01T00:00:00.000Z"},
		{"id":7,"product":{"id":2,"price":"2"},"status":"pending","created_at":"2024-01-01T00:00:00.000Z"}
	]`)
	store := NewStore(kv)

	found, err := store.UpdateStatus(7, StatusCancelled)

	require.NoError(t, err)
	assert.True(t, found)
	orders := store.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, StatusCancelled, orders[0].Status)
	assert.Equal(t, StatusPending, orders[1].Status)
}

func TestStore_UpdateStatus_InvalidStatus(t *testing.T) {
	store, kv := newTestOrderStore()

	_, err := store.UpdateStatus(1, Status("returned"))

	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, kv.SetCalls)
}

// ============================================
// Load / Save Tests
// ============================================

func TestStore_RoundTripThroughFreshInstance(t *testing.T) {
	store, kv := newTestOrderStore()
	_, err := store.AddOrder(testProduct(1), "")
	require.NoError(t, err)
	_, err = store.AddOrder(testProduct(2), StatusDelivered)
	require.NoError(t, err)
	_, err = store.AddOrder(testPricedProduct(3, "19.90"), "")
	require.NoError(t, err)
	_, err = store.AddOrder(testPricedProduct(4, "10.00"), StatusShipped)
	require.NoError(t, err)

	fresh := NewStore(kv)

	assert.Equal(t, store.Orders(), fresh.Orders())
	raw, _, err := kv.Get(StorageKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"price":"19.90"`)
	assert.Contains(t, raw, `"price":"10.00"`)
}

func TestStore_AddOrder_IDsStayAheadOfLoadedHistory(t *testing.T) {
	kv := mocks.NewMockKeyValue()
	future := fixedNow.Add(time.Hour).UnixMilli()
	kv.Put(StorageKey, `[{"id":`+jsonInt(future)+`,"product":{"id":1,"price":"1"},"status":"pending","created_at":"2024-03-01T13:30:00.250Z"}]`)
	store := NewStore(kv, WithClock(func() time.Time { return fixedNow }))

	record, err := store.AddOrder(testProduct(2), "")

	require.NoError(t, err)
	assert.Equal(t, future+1, record.ID)
}

func TestStore_Load_CorruptValueFallsBackToEmpty(t *testing.T) {
	kv := mocks.NewMockKeyValue()
	kv.Put(StorageKey, `{"id":1}`)

	store := NewStore(kv)
	assert.Empty(t, store.Orders())

	assert.ErrorIs(t, store.Load(), snapshot.ErrCorrupt)
}

func TestStore_Save_PersistFailureReturned(t *testing.T) {
	store, kv := newTestOrderStore()
	kv.SetErr = storage.ErrQuotaExceeded

	record, err := store.AddOrder(testProduct(1), "")

	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
	_, ok := store.Get(record.ID)
	assert.True(t, ok)
}

// ============================================
// External Change Tests
// ============================================

func TestStore_ExternalChangeReloadsOtherContext(t *testing.T) {
	medium := storage.NewMemory()
	defer medium.Close()
	tabA := medium.View("tab-a")
	tabB := medium.View("tab-b")

	ordersA := NewStore(tabA)
	ordersB := NewStore(tabB)
	unsub := tabB.Subscribe(ordersB.HandleExternalChange)
	defer unsub()

	var notified atomic.Int32
	ordersB.OnExternalChange(func() { notified.Add(1) })

	record, err := ordersA.AddOrder(testProduct(1), "")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := ordersB.Get(record.ID)
		return ok && notified.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
