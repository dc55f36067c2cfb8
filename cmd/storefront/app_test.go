package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/ec-storefront/internal/api"
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/client"
	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/domain/session"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
	"github.com/example/ec-storefront/internal/query"
	"github.com/example/ec-storefront/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written from feed goroutines while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newDevServer(t *testing.T) *httptest.Server {
	t.Helper()
	readStore := readmodel.NewStore()
	cmdHandler := command.NewHandler(readStore)
	queryHandler := query.NewHandler(readStore)
	require.NoError(t, cmdHandler.SeedCatalog(""))

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	_, err = readStore.AddUser(readmodel.UserReadModel{Username: "alice", Email: "alice@example.com", PasswordHash: hash})
	require.NoError(t, err)

	jwtService := auth.NewJWTService("test-secret-key-for-testing-purposes", time.Hour)
	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Handlers:     api.NewHandlers(cmdHandler, queryHandler),
		AuthHandlers: api.NewAuthHandlers(cmdHandler, queryHandler, jwtService, readStore),
		JWTService:   jwtService,
		Revocations:  readStore,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, srv *httptest.Server, kv storage.KeyValue) (*App, *syncBuffer) {
	t.Helper()
	c, err := client.New(client.Options{BaseURL: srv.URL + "/api/", Timeout: 5 * time.Second})
	require.NoError(t, err)
	out := &syncBuffer{}
	return NewApp(kv, c, out), out
}

// ============================================
// Local Cart / Checkout Tests
// ============================================

func TestApp_CartAddAndShow(t *testing.T) {
	srv := newDevServer(t)
	app, out := newTestApp(t, srv, storage.NewMemory())
	ctx := context.Background()

	require.NoError(t, app.Run(ctx, []string{"cart", "add", "1", "2"}))
	require.NoError(t, app.Run(ctx, []string{"cart", "add", "1"}))
	require.NoError(t, app.Run(ctx, []string{"cart"}))

	assert.Contains(t, out.String(), "Added 2 x Laptop")
	assert.Contains(t, out.String(), "3 item(s), total 2999.97")
}

func TestApp_CartAdd_InvalidArgs(t *testing.T) {
	srv := newDevServer(t)
	app, _ := newTestApp(t, srv, storage.NewMemory())
	ctx := context.Background()

	assert.ErrorIs(t, app.Run(ctx, []string{"cart", "add"}), errUsage)
	assert.ErrorIs(t, app.Run(ctx, []string{"cart", "add", "x"}), errUsage)
	assert.ErrorIs(t, app.Run(ctx, []string{"cart", "add", "1", "0"}), errUsage)
	assert.True(t, client.IsNotFound(app.Run(ctx, []string{"cart", "add", "999"})))
}

func TestApp_CartSurvivesRestart(t *testing.T) {
	srv := newDevServer(t)
	kv := storage.NewMemory()
	first, _ := newTestApp(t, srv, kv)
	require.NoError(t, first.Run(context.Background(), []string{"cart", "add", "2"}))

	second, out := newTestApp(t, srv, kv)
	require.NoError(t, second.Run(context.Background(), []string{"status"}))

	assert.Contains(t, out.String(), "Cart: 1 item(s), total 149.50")
}

func TestApp_Checkout(t *testing.T) {
	srv := newDevServer(t)
	app, out := newTestApp(t, srv, storage.NewMemory())
	ctx := context.Background()
	require.NoError(t, app.Run(ctx, []string{"cart", "add", "1"}))
	require.NoError(t, app.Run(ctx, []string{"cart", "add", "4"}))

	require.NoError(t, app.Run(ctx, []string{"checkout"}))

	orders := app.orders.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "Laptop", orders[0].Product.Name)
	assert.Equal(t, "Notebook", orders[1].Product.Name)
	assert.Empty(t, app.cart.Items())
	assert.Contains(t, out.String(), "(pending)")
}

func TestApp_OrderStatus(t *testing.T) {
	srv := newDevServer(t)
	app, out := newTestApp(t, srv, storage.NewMemory())
	ctx := context.Background()
	require.NoError(t, app.Run(ctx, []string{"cart", "add", "1"}))
	require.NoError(t, app.Run(ctx, []string{"checkout"}))
	id := app.orders.Orders()[0].ID

	require.NoError(t, app.Run(ctx, []string{"order-status", itoa(id), "shipped"}))
	require.NoError(t, app.Run(ctx, []string{"order", itoa(id)}))

	assert.Contains(t, out.String(), "Status: shipped")
	assert.Error(t, app.Run(ctx, []string{"order-status", itoa(id), "lost"}))
}

// ============================================
// Account Tests
// ============================================

func TestApp_LoginPersistsSession(t *testing.T) {
	srv := newDevServer(t)
	kv := storage.NewMemory()
	app, _ := newTestApp(t, srv, kv)
	ctx := context.Background()

	require.NoError(t, app.Run(ctx, []string{"login", "alice", "password123"}))

	v, ok, err := kv.Get(session.StorageKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	// a later run picks up both the flag and the API session
	next, out := newTestApp(t, srv, kv)
	assert.True(t, next.session.IsAuthenticated())
	require.NoError(t, next.Run(ctx, []string{"profile"}))
	assert.Contains(t, out.String(), "alice <alice@example.com>")
}

func TestApp_LoginRejected(t *testing.T) {
	srv := newDevServer(t)
	kv := storage.NewMemory()
	app, _ := newTestApp(t, srv, kv)

	err := app.Run(context.Background(), []string{"login", "alice", "wrong-password"})

	assert.True(t, client.IsUnauthorized(err))
	assert.False(t, app.session.IsAuthenticated())
	_, ok, _ := kv.Get(session.StorageKey)
	assert.False(t, ok)
}

func TestApp_Logout(t *testing.T) {
	srv := newDevServer(t)
	kv := storage.NewMemory()
	app, _ := newTestApp(t, srv, kv)
	ctx := context.Background()
	require.NoError(t, app.Run(ctx, []string{"login", "alice", "password123"}))

	require.NoError(t, app.Run(ctx, []string{"logout"}))

	assert.False(t, app.session.IsAuthenticated())
	_, ok, _ := kv.Get(cookieKey)
	assert.False(t, ok)
	assert.ErrorIs(t, app.Run(ctx, []string{"profile"}), errNotSignedIn)
}

func TestApp_RemoteOrdersRequireSignIn(t *testing.T) {
	srv := newDevServer(t)
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(session.StorageKey, "true"))
	app, _ := newTestApp(t, srv, kv)

	err := app.Run(context.Background(), []string{"orders", "-remote"})

	assert.ErrorIs(t, err, errNotSignedIn)
	// the stale local flag is cleared
	assert.False(t, app.session.IsAuthenticated())
}

func TestApp_SyncAndPlaceRemoteOrder(t *testing.T) {
	srv := newDevServer(t)
	app, out := newTestApp(t, srv, storage.NewMemory())
	ctx := context.Background()
	require.NoError(t, app.Run(ctx, []string{"login", "alice", "password123"}))
	require.NoError(t, app.Run(ctx, []string{"cart", "add", "2", "2"}))

	require.NoError(t, app.Run(ctx, []string{"cart", "sync"}))
	require.NoError(t, app.Run(ctx, []string{"place-order", "-address", "1 Main St"}))
	require.NoError(t, app.Run(ctx, []string{"orders", "-remote"}))

	assert.Contains(t, out.String(), "Remote cart")
	assert.Contains(t, out.String(), "total 299.00")
}

func TestApp_CartSyncReplacesRemoteCart(t *testing.T) {
	srv := newDevServer(t)
	app, _ := newTestApp(t, srv, storage.NewMemory())
	ctx := context.Background()
	require.NoError(t, app.Run(ctx, []string{"login", "alice", "password123"}))
	require.NoError(t, app.Run(ctx, []string{"cart", "add", "2", "2"}))

	require.NoError(t, app.Run(ctx, []string{"cart", "sync"}))
	require.NoError(t, app.Run(ctx, []string{"cart", "sync"}))

	remote, err := app.api.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, remote.Items, 1)
	assert.Equal(t, 2, remote.Items[0].Quantity)

	// lines dropped locally disappear remotely too
	require.NoError(t, app.Run(ctx, []string{"cart", "remove", "2"}))
	require.NoError(t, app.Run(ctx, []string{"cart", "add", "1"}))
	require.NoError(t, app.Run(ctx, []string{"cart", "sync"}))

	remote, err = app.api.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, remote.Items, 1)
	assert.Equal(t, int64(1), remote.Items[0].Product.ID)
}

// ============================================
// Dispatch / Cross-context Tests
// ============================================

func TestApp_UnknownCommand(t *testing.T) {
	srv := newDevServer(t)
	app, _ := newTestApp(t, srv, storage.NewMemory())

	assert.ErrorIs(t, app.Run(context.Background(), nil), errUsage)
	assert.ErrorIs(t, app.Run(context.Background(), []string{"teleport"}), errUnknownAction)
	assert.ErrorIs(t, app.Run(context.Background(), []string{"watch"}), errFeedDisabled)
}

func TestApp_FollowsOtherContexts(t *testing.T) {
	srv := newDevServer(t)
	medium := storage.NewMemory()
	t.Cleanup(func() { medium.Close() })

	viewA := medium.View("a")
	viewB := medium.View("b")
	writer, _ := newTestApp(t, srv, viewA)
	watcher, out := newTestApp(t, srv, viewB)
	defer watcher.Follow(viewB)()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx, []string{"watch"}) }()

	p, err := writer.api.GetProduct(ctx, 3)
	require.NoError(t, err)

	// watch registers its listeners on its own goroutine, so keep writing
	assert.Eventually(t, func() bool {
		return writer.cart.Add(p, 1) == nil && strings.Contains(out.String(), "cart changed")
	}, 2*time.Second, 50*time.Millisecond)
	assert.Positive(t, watcher.cart.Count())

	cancel()
	assert.NoError(t, <-done)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
