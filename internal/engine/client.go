package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"mahjong-duo-client/internal/protocol"
)

// Phase is the match lifecycle state. It is advanced only by inbound
// protocol messages or by local connect/disconnect calls; nothing
// advances it speculatively.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseConnecting     Phase = "connecting"
	PhaseAuthenticating Phase = "authenticating"
	PhaseLobby          Phase = "lobby"
	PhaseInRoom         Phase = "in_room"
	PhaseInGame         Phase = "in_game"
	PhaseEnded          Phase = "ended"
	PhaseClosed         Phase = "closed"
)

const (
	// initialRemoteCount is the dealt hand size; the remote count
	// resets to it between matches.
	initialRemoteCount = 13
	// maxHandSize caps the remote count after a draw.
	maxHandSize = 14
	// noIndex marks an unset seat, selection or highlight.
	noIndex = -1

	writeTimeout = 5 * time.Second
)

// Option configures a Client.
type Option func(*Client)

func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dial = d }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client owns the connection to the match server and reconciles its
// event stream into a consistent two-seat view. All state belongs to
// one logical session; the read loop is the only goroutine applying
// inbound messages, and intent calls share the same mutex, so no
// handler ever runs concurrently with another.
type Client struct {
	mu       sync.RWMutex
	log      *log.Logger
	session  *Session
	endpoint string
	dial     Dialer

	transport  Transport
	cancelRead context.CancelFunc
	connID     string

	phase     Phase
	connected bool
	autoReady bool

	seat     int
	selfName string
	opponent string
	online   []bool
	ready    map[int]bool

	hand         []int
	handUpdated  bool
	meldsSelf    []protocol.Meld
	meldsOpp     []protocol.Meld
	discardsSelf []int
	discardsOpp  []int
	remoteCount  int

	actions   []protocol.Action
	events    []protocol.Event
	result    *protocol.GameResult
	finalView *protocol.FinalView

	selected  int
	lastDrawn int
	resolver  Resolver
	inGame    bool

	// lastNotice is the most recent user-facing server message
	// (errors, eviction notices) for the presentation layer.
	lastNotice string
}

func NewClient(session *Session, endpoint string, opts ...Option) *Client {
	c := &Client{
		session:     session,
		endpoint:    endpoint,
		dial:        DialWebsocket,
		log:         log.Default(),
		phase:       PhaseIdle,
		seat:        noIndex,
		selected:    noIndex,
		lastDrawn:   noIndex,
		remoteCount: initialRemoteCount,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "client")
	return c
}

// Connect opens the transport and starts the authenticate handshake.
// It is a no-op when a connection is already open, and fails locally
// without opening a socket when no identity is resolved.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.transport != nil {
		c.mu.Unlock()
		return nil
	}
	if c.session.Identity() == nil {
		c.phase = PhaseIdle
		c.mu.Unlock()
		c.log.Error("connect refused: no resolved identity")
		return fmt.Errorf("NOT_AUTHENTICATED: connect requires a resolved identity")
	}
	c.phase = PhaseConnecting
	dial, endpoint := c.dial, c.endpoint
	c.mu.Unlock()

	transport, err := dial(ctx, endpoint)
	if err != nil {
		c.mu.Lock()
		c.phase = PhaseIdle
		c.mu.Unlock()
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c.mu.Lock()
	if c.transport != nil {
		// A concurrent connect won the race; keep its connection.
		c.mu.Unlock()
		_ = transport.Close()
		return nil
	}
	c.transport = transport
	c.connID = uuid.New().String()
	c.phase = PhaseAuthenticating

	readCtx, cancel := context.WithCancel(context.Background())
	c.cancelRead = cancel

	username, password := c.session.Credentials()
	if err := c.sendLocked(protocol.NewAuthenticate(username, password)); err != nil {
		c.log.Error("authenticate send failed", "err", err)
	}
	connID := c.connID
	c.mu.Unlock()

	c.log.Info("connection opened", "conn", connID, "endpoint", endpoint)
	go c.readLoop(readCtx, transport)
	return nil
}

func (c *Client) readLoop(ctx context.Context, t Transport) {
	for {
		data, err := t.Read(ctx)
		if err != nil {
			c.handleClose(t, err)
			return
		}
		c.HandleMessage(data)
	}
}

// handleClose resets to the disconnected baseline after a transport
// drop. Identity and room survive; those clear only on explicit
// logout or reset.
func (c *Client) handleClose(t Transport, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport != t {
		// A stale read loop from an already-replaced connection.
		return
	}
	c.log.Info("connection closed", "conn", c.connID, "reason", err)
	c.resetConnectionLocked()
}

// resetConnectionLocked is the safe disconnected baseline reachable
// from any lifecycle state.
func (c *Client) resetConnectionLocked() {
	if c.cancelRead != nil {
		c.cancelRead()
		c.cancelRead = nil
	}
	if c.transport != nil {
		_ = c.transport.Close()
		c.transport = nil
	}
	c.connected = false
	c.inGame = false
	c.remoteCount = initialRemoteCount
	c.ready = nil
	c.autoReady = false
	c.phase = PhaseClosed
}

// Disconnect closes the transport. Identity and room are preserved; a
// disconnect is not a logout.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil && !c.connected {
		return
	}
	c.resetConnectionLocked()
	c.log.Info("disconnected")
}

// ResetState performs a full local reset of connection and match
// state. The held identity is untouched, so display names re-derive
// from it: a reset is not a logout.
func (c *Client) ResetState() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAllLocked()
}

func (c *Client) resetAllLocked() {
	c.resetConnectionLocked()
	c.seat = noIndex
	c.selfName = ""
	c.opponent = ""
	c.online = nil
	c.hand = nil
	c.meldsSelf, c.meldsOpp = nil, nil
	c.discardsSelf, c.discardsOpp = nil, nil
	c.actions, c.events = nil, nil
	c.result, c.finalView = nil, nil
	c.selected, c.lastDrawn = noIndex, noIndex
	c.resolver.Clear()
	c.lastNotice = ""
	c.phase = PhaseIdle
}

// Ready sends the ready request. No-op when not connected or already
// marked ready; clears any auto-ready intent either way.
func (c *Client) Ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.isReadyLocked() {
		return nil
	}
	c.autoReady = false
	return c.sendLocked(protocol.NewReady())
}

// JoinAndReady marks the player ready, connecting first when needed.
// Until the authenticate handshake completes it arms the auto-ready
// intent instead of sending, and the dispatch handlers consume the
// intent once a seat is assigned or a ready-status update confirms
// the state. A transport mid-handshake therefore still gets its
// intent armed rather than a silently dropped ready.
func (c *Client) JoinAndReady(ctx context.Context) error {
	c.mu.Lock()
	if c.isReadyLocked() {
		c.mu.Unlock()
		return nil
	}
	if !c.connected {
		c.autoReady = true
		needDial := c.transport == nil
		c.mu.Unlock()
		if needDial {
			return c.Connect(ctx)
		}
		return nil
	}
	c.mu.Unlock()
	return c.Ready()
}

// SelectTile toggles the hand selection. Selecting an index whose tile
// has no matching discard offer clears the selection instead.
func (c *Client) SelectTile(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.hand) {
		c.selected = noIndex
		return
	}
	if !c.hasDiscardOfferLocked(c.hand[index]) {
		c.selected = noIndex
		return
	}
	if c.selected == index {
		c.selected = noIndex
		return
	}
	c.selected = index
}

// ConfirmDiscard sends the discard offer matching the selected tile.
// No-op when nothing discardable is selected.
func (c *Client) ConfirmDiscard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	offer := c.selectedDiscardLocked()
	if offer == nil {
		return nil
	}
	return c.sendLocked(protocol.NewAct(*offer))
}

// DoAction forwards an offered action verbatim. The server remains the
// sole judge of legality.
func (c *Client) DoAction(action protocol.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(protocol.NewAct(action))
}

// tryAutoReadyLocked opportunistically retries the deferred ready
// intent. Always safe: it no-ops when unseated or already ready.
func (c *Client) tryAutoReadyLocked() {
	if !c.autoReady || c.seat == noIndex {
		return
	}
	if c.isReadyLocked() {
		c.autoReady = false
		return
	}
	if err := c.sendLocked(protocol.NewReady()); err != nil {
		c.log.Warn("auto-ready attempt failed", "err", err)
	}
}

func (c *Client) isReadyLocked() bool {
	if c.ready == nil || c.seat == noIndex {
		return false
	}
	return c.ready[c.seat]
}

func (c *Client) hasDiscardOfferLocked(tile int) bool {
	for _, a := range c.actions {
		if a.Type == protocol.ActDiscard && a.Tile != nil && *a.Tile == tile {
			return true
		}
	}
	return false
}

func (c *Client) selectedDiscardLocked() *protocol.Action {
	if c.selected == noIndex || c.selected >= len(c.hand) {
		return nil
	}
	tile := c.hand[c.selected]
	for i, a := range c.actions {
		if a.Type == protocol.ActDiscard && a.Tile != nil && *a.Tile == tile {
			return &c.actions[i]
		}
	}
	return nil
}

// sendLocked marshals and writes fire-and-forget against the
// transport's own buffering.
func (c *Client) sendLocked(v any) error {
	if c.transport == nil {
		return fmt.Errorf("NOT_CONNECTED: no open transport")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode outbound: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.transport.Write(ctx, data); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
