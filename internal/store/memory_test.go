package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "identity")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "identity", `{"id":1}`))

	v, ok, err := m.Get(ctx, "identity")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, v)

	require.NoError(t, m.Delete(ctx, "identity"))

	_, ok, err = m.Get(ctx, "identity")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Overwrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "last_room", "room1"))
	require.NoError(t, m.Set(ctx, "last_room", "room2"))

	v, ok, _ := m.Get(ctx, "last_room")
	assert.True(t, ok)
	assert.Equal(t, "room2", v)
}

func TestMemory_DeleteMissingKeyIsNoop(t *testing.T) {
	m := NewMemory()
	assert.NoError(t, m.Delete(context.Background(), "nope"))
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n)
			_ = m.Set(ctx, key, "v")
			_, _, _ = m.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		_, ok, _ := m.Get(ctx, fmt.Sprintf("key-%d", i))
		assert.True(t, ok)
	}
}
