package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEndpoint_OverrideWins(t *testing.T) {
	got := ResolveEndpoint("wss://play.example.com/ws/auth", "http://ignored:8000")
	assert.Equal(t, "wss://play.example.com/ws/auth", got)
}

func TestResolveEndpoint_DerivesFromOrigin(t *testing.T) {
	assert.Equal(t, "ws://127.0.0.1:8000/ws/auth", ResolveEndpoint("", "http://127.0.0.1:8000"))
	assert.Equal(t, "wss://duo.example.com/ws/auth", ResolveEndpoint("", "https://duo.example.com"))
	assert.Equal(t, "ws://localhost:9000/ws/auth", ResolveEndpoint("", "localhost:9000"))
	// Trailing slash does not double up
	assert.Equal(t, "ws://host/ws/auth", ResolveEndpoint("", "http://host/"))
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DUO_SERVER_URL", "DUO_ORIGIN", "DUO_STORE", "DUO_KEY_PREFIX", "DUO_ROOM"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.NotEmpty(t, cfg.KeyPrefix)
	assert.NotEmpty(t, cfg.RoomID)
}
