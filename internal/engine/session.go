package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"mahjong-duo-client/internal/protocol"
	"mahjong-duo-client/internal/store"
)

// Durability keys, namespaced by the session prefix. These keys are
// written only through Session; no other component touches them.
const (
	keyIdentity = "identity"
	keyLoggedIn = "logged_in"
	keyLastRoom = "last_room"
)

// Session holds identity, the selected room and the durable memory of
// both. It is the single authority for login/logout side effects.
type Session struct {
	mu     sync.RWMutex
	store  store.Store
	prefix string
	log    *log.Logger

	identity *protocol.Identity
	nickname string
	username string
	password string
	roomID   string
}

func NewSession(st store.Store, prefix string, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		store:  st,
		prefix: prefix,
		log:    logger.With("component", "session"),
	}
}

func (s *Session) key(name string) string {
	return s.prefix + ":" + name
}

// Restore loads persisted identity and the last-used room id at
// startup. Missing keys are not errors; the session simply starts
// unauthenticated.
func (s *Session) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.store.Get(ctx, s.key(keyIdentity))
	if err != nil {
		return fmt.Errorf("restore identity: %w", err)
	}
	if ok {
		var id protocol.Identity
		if err := json.Unmarshal([]byte(raw), &id); err != nil {
			// A corrupt record is dropped rather than blocking startup.
			s.log.Warn("discarding unreadable persisted identity", "err", err)
			_ = s.store.Delete(ctx, s.key(keyIdentity))
			_ = s.store.Delete(ctx, s.key(keyLoggedIn))
		} else {
			s.identity = &id
			s.nickname = id.Username
			s.username = id.Username
		}
	}

	room, ok, err := s.store.Get(ctx, s.key(keyLastRoom))
	if err != nil {
		return fmt.Errorf("restore room: %w", err)
	}
	if ok {
		s.roomID = room
	}
	return nil
}

// SetIdentity commits or clears the authenticated identity. Non-nil
// persists the identity and the logged-in flag and mirrors the display
// name into the nickname; nil clears both external keys and the local
// display fields (logout).
func (s *Session) SetIdentity(ctx context.Context, id *protocol.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == nil {
		s.identity = nil
		s.nickname = ""
		s.username = ""
		if err := s.store.Delete(ctx, s.key(keyIdentity)); err != nil {
			return fmt.Errorf("clear identity: %w", err)
		}
		if err := s.store.Delete(ctx, s.key(keyLoggedIn)); err != nil {
			return fmt.Errorf("clear login flag: %w", err)
		}
		s.log.Info("identity cleared")
		return nil
	}

	copied := *id
	s.identity = &copied
	s.nickname = copied.Username
	s.username = copied.Username

	raw, err := json.Marshal(copied)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.store.Set(ctx, s.key(keyIdentity), string(raw)); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	if err := s.store.Set(ctx, s.key(keyLoggedIn), "true"); err != nil {
		return fmt.Errorf("persist login flag: %w", err)
	}
	s.log.Info("identity committed", "username", copied.Username)
	return nil
}

// SetCredentials records the credentials used to authenticate the
// connection. They are held in memory only, never persisted.
func (s *Session) SetCredentials(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.password = password
}

// Credentials returns the username/password pair for the authenticate
// request.
func (s *Session) Credentials() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username, s.password
}

// Identity returns a copy of the committed identity, nil when logged
// out.
func (s *Session) Identity() *protocol.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	copied := *s.identity
	return &copied
}

// Nickname is the display name mirrored from the identity.
func (s *Session) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nickname
}

// SetRoom selects the room for the next join; it is not persisted
// until SaveRoom runs after a successful authenticated join.
func (s *Session) SetRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
}

func (s *Session) Room() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

// SaveRoom persists the current room id as the last-used room.
func (s *Session) SaveRoom(ctx context.Context) error {
	s.mu.RLock()
	roomID := s.roomID
	s.mu.RUnlock()

	if roomID == "" {
		return nil
	}
	if err := s.store.Set(ctx, s.key(keyLastRoom), roomID); err != nil {
		return fmt.Errorf("persist room: %w", err)
	}
	return nil
}

// ClearRoom forgets the persisted room, keeping the in-memory
// selection untouched.
func (s *Session) ClearRoom(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key(keyLastRoom)); err != nil {
		return fmt.Errorf("clear room: %w", err)
	}
	return nil
}
