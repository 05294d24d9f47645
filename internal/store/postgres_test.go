package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a throwaway postgres container and returns a
// connected store.
func setupPostgres(t *testing.T) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed store test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("duo"),
		postgres.WithUsername("duo"),
		postgres.WithPassword("duo"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	st, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	return st
}

func TestPostgres_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := setupPostgres(t)

	_, ok, err := st.Get(ctx, "identity")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set(ctx, "identity", `{"id":7,"username":"A","score":1000}`))

	v, ok, err := st.Get(ctx, "identity")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":7,"username":"A","score":1000}`, v)

	// Upsert replaces in place
	require.NoError(t, st.Set(ctx, "identity", `{"id":7,"username":"A","score":1016}`))
	v, _, err = st.Get(ctx, "identity")
	require.NoError(t, err)
	assert.Contains(t, v, "1016")

	require.NoError(t, st.Delete(ctx, "identity"))
	_, ok, err = st.Get(ctx, "identity")
	require.NoError(t, err)
	assert.False(t, ok)
}
