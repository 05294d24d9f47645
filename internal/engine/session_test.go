package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mahjong-duo-client/internal/protocol"
	"mahjong-duo-client/internal/store"
)

func TestSession_SetIdentityPersistsAndMirrors(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	s := NewSession(st, "duo", nil)

	require.NoError(t, s.SetIdentity(ctx, &protocol.Identity{ID: 7, Username: "alice", Score: 1000}))

	assert.Equal(t, "alice", s.Nickname())

	raw, ok, err := st.Get(ctx, "duo:identity")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, raw, `"alice"`)

	flag, ok, err := st.Get(ctx, "duo:logged_in")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", flag)
}

func TestSession_LogoutClearsExternalKeysAndDisplayFields(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	s := NewSession(st, "duo", nil)

	require.NoError(t, s.SetIdentity(ctx, &protocol.Identity{ID: 1, Username: "bob"}))
	require.NoError(t, s.SetIdentity(ctx, nil))

	assert.Nil(t, s.Identity())
	assert.Equal(t, "", s.Nickname())

	_, ok, _ := st.Get(ctx, "duo:identity")
	assert.False(t, ok)
	_, ok, _ = st.Get(ctx, "duo:logged_in")
	assert.False(t, ok)
}

func TestSession_RestoreAcrossRestart(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	first := NewSession(st, "duo", nil)
	require.NoError(t, first.SetIdentity(ctx, &protocol.Identity{ID: 3, Username: "carol", Score: 1016}))
	first.SetRoom("room9")
	require.NoError(t, first.SaveRoom(ctx))

	// A fresh session over the same store stands in for a restart
	second := NewSession(st, "duo", nil)
	require.NoError(t, second.Restore(ctx))

	id := second.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "carol", id.Username)
	assert.Equal(t, 1016, id.Score)
	assert.Equal(t, "room9", second.Room())
}

func TestSession_RestoreDropsCorruptIdentity(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Set(ctx, "duo:identity", "{broken"))
	require.NoError(t, st.Set(ctx, "duo:logged_in", "true"))

	s := NewSession(st, "duo", nil)
	require.NoError(t, s.Restore(ctx))

	assert.Nil(t, s.Identity())
	_, ok, _ := st.Get(ctx, "duo:identity")
	assert.False(t, ok)
	_, ok, _ = st.Get(ctx, "duo:logged_in")
	assert.False(t, ok)
}

func TestSession_RoomPersistenceIsSeparateFromIdentity(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	s := NewSession(st, "duo", nil)

	s.SetRoom("room2")
	_, ok, _ := st.Get(ctx, "duo:last_room")
	assert.False(t, ok, "SetRoom alone must not persist")

	require.NoError(t, s.SaveRoom(ctx))
	room, ok, _ := st.Get(ctx, "duo:last_room")
	assert.True(t, ok)
	assert.Equal(t, "room2", room)

	require.NoError(t, s.ClearRoom(ctx))
	_, ok, _ = st.Get(ctx, "duo:last_room")
	assert.False(t, ok)
	assert.Equal(t, "room2", s.Room(), "in-memory selection survives ClearRoom")
}

func TestSession_CredentialsHeldInMemoryOnly(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	s := NewSession(st, "duo", nil)

	s.SetCredentials("dave", "secret")
	user, pass := s.Credentials()
	assert.Equal(t, "dave", user)
	assert.Equal(t, "secret", pass)

	// Nothing credential-shaped lands in the store
	_, ok, _ := st.Get(ctx, "duo:identity")
	assert.False(t, ok)
}
