package config

import (
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
)

// Config is assembled from environment variables (a .env file is
// loaded automatically when present).
type Config struct {
	// ServerURL is an explicit websocket endpoint override. When set
	// it is used verbatim.
	ServerURL string
	// Origin is the server origin (scheme://host[:port]) the endpoint
	// is derived from when no override is given.
	Origin string

	// StoreBackend selects the durability service: memory, redis or
	// postgres.
	StoreBackend string
	RedisAddr    string
	PostgresDSN  string
	// KeyPrefix namespaces the durability keys of this installation.
	KeyPrefix string

	RoomID string
}

func Load() Config {
	return Config{
		ServerURL:    os.Getenv("DUO_SERVER_URL"),
		Origin:       getenv("DUO_ORIGIN", "http://127.0.0.1:8000"),
		StoreBackend: getenv("DUO_STORE", "memory"),
		RedisAddr:    getenv("DUO_REDIS_ADDR", "localhost:6379"),
		PostgresDSN:  os.Getenv("DUO_POSTGRES_DSN"),
		KeyPrefix:    getenv("DUO_KEY_PREFIX", "duo"),
		RoomID:       getenv("DUO_ROOM", "room1"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// authPathSuffix is the server's authenticated websocket path.
const authPathSuffix = "/ws/auth"

// Endpoint resolves the websocket address: the explicit override wins,
// otherwise the origin is rewritten to the websocket scheme and the
// authenticated path suffix appended.
func (c Config) Endpoint() string {
	return ResolveEndpoint(c.ServerURL, c.Origin)
}

// ResolveEndpoint derives a websocket URL from an override and an
// origin, preferring the override.
func ResolveEndpoint(override, origin string) string {
	if override != "" {
		return override
	}

	endpoint := origin
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = "ws://" + strings.TrimPrefix(endpoint, "http://")
	case !strings.Contains(endpoint, "://"):
		endpoint = "ws://" + endpoint
	}
	return strings.TrimSuffix(endpoint, "/") + authPathSuffix
}
