package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu      sync.Mutex
	changes []Change
	err     error
}

func (p *fakePublisher) Publish(ctx context.Context, change Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
	return p.err
}

func TestPublishing_SetPublishesChange(t *testing.T) {
	pub := &fakePublisher{}
	kv := Publishing(NewMemory(), pub, "ctx-1")

	require.NoError(t, kv.Set("cartItems", `[{"quantity":1}]`))

	require.Len(t, pub.changes, 1)
	assert.Equal(t, "cartItems", pub.changes[0].Key)
	assert.Equal(t, `[{"quantity":1}]`, pub.changes[0].Value)
	assert.Equal(t, "ctx-1", pub.changes[0].Origin)
	assert.False(t, pub.changes[0].At.IsZero())
}

func TestPublishing_RemovePublishesChange(t *testing.T) {
	pub := &fakePublisher{}
	kv := Publishing(NewMemory(), pub, "ctx-1")

	require.NoError(t, kv.Remove("isAuthenticated"))

	require.Len(t, pub.changes, 1)
	assert.True(t, pub.changes[0].Removed)
}

func TestPublishing_FailedWriteIsNotPublished(t *testing.T) {
	pub := &fakePublisher{}
	kv := Publishing(NewMemory().WithQuota(4), pub, "ctx-1")

	err := kv.Set("cartItems", "[]")

	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Empty(t, pub.changes)
}

func TestPublishing_PublishErrorDoesNotFailWrite(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	inner := NewMemory()
	kv := Publishing(inner, pub, "ctx-1")

	require.NoError(t, kv.Set("orders", "[]"))

	v, ok, _ := inner.Get("orders")
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
}

func TestPublishing_GetPassesThrough(t *testing.T) {
	inner := NewMemory()
	require.NoError(t, inner.Set("orders", "[]"))
	kv := Publishing(inner, &fakePublisher{}, "ctx-1")

	v, ok, err := kv.Get("orders")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
}
