package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"mahjong-duo-client/internal/protocol"
)

// HandleMessage decodes one inbound frame and applies it. Every
// message runs under the client mutex, so each dispatch plus its
// reconcile pass is atomic with respect to readers.
func (c *Client) HandleMessage(data []byte) {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		c.log.Warn("dropping unreadable message", "err", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prevHand := c.hand
	c.handUpdated = false
	c.dispatchLocked(env)
	c.reconcileLocked(prevHand)
}

func (c *Client) dispatchLocked(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeAuthenticationSuccess:
		c.onAuthenticationSuccess(env)
	case protocol.TypeRoomJoined:
		c.onRoomJoined(env)
	case protocol.TypeRoomStatus:
		c.onRoomStatus(env)
	case protocol.TypeReadyStatus:
		c.onReadyStatus(env)
	case protocol.TypeGameStarted:
		c.onGameStarted()
	case protocol.TypeYouAre:
		c.onSeatView(env, false)
	case protocol.TypeSyncView:
		c.onSeatView(env, true)
	case protocol.TypeSyncHand:
		c.onSyncHand(env)
	case protocol.TypeChoices:
		c.onChoices(env)
	case protocol.TypeEvent:
		c.onEvent(env)
	case protocol.TypeGameEnd:
		c.onGameEnd(env)
	case protocol.TypeError:
		c.onError(env)
	case protocol.TypePlayerKicked:
		c.onPlayerKicked(env)
	case protocol.TypePlayerDisconnected, protocol.TypePlayerReconnected:
		c.onPresence(env)
	case protocol.TypeMutualReplacement:
		c.log.Info("both seats replaced by reconnecting players")
	default:
		c.log.Debug("ignoring unknown message type", "type", env.Type)
	}
}

// onAuthenticationSuccess commits the identity, persists the room as
// last-used and immediately joins it. The server assigns seats on
// join, so the client never guesses one here.
func (c *Client) onAuthenticationSuccess(env protocol.Envelope) {
	var msg protocol.AuthenticationSuccess
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	ctx := context.Background()
	if err := c.session.SetIdentity(ctx, &msg.User); err != nil {
		c.log.Error("identity persist failed", "err", err)
	}
	c.connected = true
	c.phase = PhaseLobby
	if err := c.session.SaveRoom(ctx); err != nil {
		c.log.Warn("room persist failed", "err", err)
	}
	if err := c.sendLocked(protocol.NewJoinRoom(c.session.Room())); err != nil {
		c.log.Error("join_room send failed", "err", err)
	}
}

func (c *Client) onRoomJoined(env protocol.Envelope) {
	var msg protocol.RoomJoined
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	c.seat = msg.Seat
	if msg.RoomID != "" {
		c.session.SetRoom(msg.RoomID)
	}
	if c.phase != PhaseInGame {
		c.phase = PhaseInRoom
	}
	c.log.Info("room joined", "room", msg.RoomID, "seat", msg.Seat)
	c.tryAutoReadyLocked()
}

func (c *Client) onRoomStatus(env protocol.Envelope) {
	var msg protocol.RoomStatus
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	c.online = append([]bool(nil), msg.Players...)
}

// onReadyStatus replaces the ready map wholesale and settles any
// deferred auto-ready intent: clear it once the server confirms,
// retry otherwise.
func (c *Client) onReadyStatus(env protocol.Envelope) {
	var msg protocol.ReadyStatus
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	ready := make(map[int]bool, len(msg.Ready))
	for key, v := range msg.Ready {
		seat, err := strconv.Atoi(key)
		if err != nil {
			c.log.Warn("ignoring non-numeric ready seat", "seat", key)
			continue
		}
		ready[seat] = v
	}
	c.ready = ready
	if c.isReadyLocked() {
		c.autoReady = false
	} else {
		c.tryAutoReadyLocked()
	}
}

// onGameStarted resets per-match logs and outcome state. Hands and
// melds are not touched here; the you_are snapshot that follows is the
// authority for those.
func (c *Client) onGameStarted() {
	c.result = nil
	c.finalView = nil
	c.events = nil
	c.actions = nil
	c.ready = nil
	c.selected = noIndex
	c.lastDrawn = noIndex
	c.resolver.Clear()
	c.inGame = true
	c.phase = PhaseInGame
	c.log.Info("game started", "seat", c.seat)
}

// onSeatView applies the seat-relative snapshot shared by you_are and
// sync_view. sync_view additionally forces in-game: it only ever
// arrives for a running match, so a reconnecting client trusts it over
// whatever lifecycle state it was in.
func (c *Client) onSeatView(env protocol.Envelope, forceInGame bool) {
	var msg protocol.SeatView
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	if msg.Seat != nil {
		c.seat = *msg.Seat
	}
	if msg.Username != "" {
		c.selfName = msg.Username
	}
	if msg.Opponent != "" {
		c.opponent = msg.Opponent
	}
	c.hand = append([]int(nil), msg.Hand...)
	c.handUpdated = true
	c.meldsSelf = append([]protocol.Meld(nil), msg.MeldsSelf...)
	c.meldsOpp = append([]protocol.Meld(nil), msg.MeldsOpp...)
	c.discardsSelf = append([]int(nil), msg.DiscardsSelf...)
	c.discardsOpp = append([]int(nil), msg.DiscardsOpp...)
	if msg.OppHandCount != nil {
		c.remoteCount = clampCount(*msg.OppHandCount)
	}
	if forceInGame {
		c.inGame = true
		c.phase = PhaseInGame
	}
}

func (c *Client) onSyncHand(env protocol.Envelope) {
	var msg protocol.SyncHand
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	c.hand = append([]int(nil), msg.Hand...)
	c.handUpdated = true
}

// onChoices replaces the offered actions wholesale. Offers are never
// merged across messages; the latest set is the only valid one.
func (c *Client) onChoices(env protocol.Envelope) {
	var msg protocol.Choices
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	c.actions = append([]protocol.Action(nil), msg.Actions...)
}

// onEvent appends to the event log and applies the per-type side
// effects. Remote-count arithmetic is an estimate kept within [0, 14];
// the next sync_view overrides it with the true count.
func (c *Client) onEvent(env protocol.Envelope) {
	var msg protocol.EventMessage
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	ev := msg.Ev
	c.events = append(c.events, ev)
	isLocal := c.seat != noIndex && ev.Seat == c.seat

	switch ev.Type {
	case protocol.ActDiscard:
		if isLocal {
			if ev.Tile != nil {
				c.discardsSelf = append(c.discardsSelf, *ev.Tile)
			}
		} else {
			if ev.Tile != nil {
				c.discardsOpp = append(c.discardsOpp, *ev.Tile)
			}
			c.bumpRemoteCount(-1)
		}
	case protocol.ActPeng, protocol.ActPong:
		if !isLocal {
			c.bumpRemoteCount(-2)
		}
	case protocol.ActKong:
		if !isLocal {
			c.bumpRemoteCount(-kongHandCost(ev.Style))
		}
	case protocol.ActDraw:
		if isLocal {
			// The highlight from any earlier draw is stale now; the
			// armed expectation resolves against the next hand snapshot.
			c.lastDrawn = noIndex
			c.resolver.Arm(ev.Tile)
		} else {
			c.bumpRemoteCount(1)
		}
	}

	// Any non-draw event invalidates a pending expectation; the hand
	// snapshot it was waiting for will never arrive in the expected
	// form after a claim or discard intervened.
	if ev.Type != protocol.ActDraw {
		c.lastDrawn = noIndex
		c.resolver.Clear()
	}
}

// kongHandCost is how many hand tiles a kong consumes: an added kong
// upgrades an existing pung (1), a concealed kong comes entirely from
// hand (4), an exposed kong claims the discard (3).
func kongHandCost(style string) int {
	switch style {
	case protocol.KongAdded:
		return 1
	case protocol.KongConcealed:
		return 4
	case protocol.KongExposed:
		return 3
	}
	return 0
}

func (c *Client) bumpRemoteCount(delta int) {
	c.remoteCount = clampCount(c.remoteCount + delta)
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	if n > maxHandSize {
		return maxHandSize
	}
	return n
}

// onGameEnd stores the authoritative outcome. Hands, melds and
// discards are deliberately left as they were so the final board stays
// reviewable; only the actionable state is cleared.
func (c *Client) onGameEnd(env protocol.Envelope) {
	var msg protocol.GameEnd
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	c.result = msg.Result
	c.finalView = msg.FinalView
	c.actions = nil
	c.selected = noIndex
	c.remoteCount = initialRemoteCount
	c.inGame = false
	c.phase = PhaseEnded
	if msg.Result != nil {
		c.log.Info("game ended", "reason", msg.Result.Reason, "winner", msg.Result.Winner)
	}
}

// onError surfaces the server's message. An identity conflict means
// this username cannot rejoin the remembered room, so the persisted
// room is forgotten and local state fully reset; everything else is
// advisory.
func (c *Client) onError(env protocol.Envelope) {
	var msg protocol.ErrorMessage
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	c.lastNotice = msg.Detail
	c.log.Error("server rejected request", "detail", msg.Detail)
	if isIdentityConflict(msg.Detail) {
		if err := c.session.ClearRoom(context.Background()); err != nil {
			c.log.Warn("room clear failed", "err", err)
		}
		c.resetAllLocked()
	}
}

// isIdentityConflict matches the server's name-collision and
// missing-session rejections by substring; the server has no error
// codes.
func isIdentityConflict(detail string) bool {
	for _, marker := range []string{
		"already in use",
		"already taken",
		"not logged in",
		"log in first",
		"已被",
		"请先登录",
	} {
		if strings.Contains(detail, marker) {
			return true
		}
	}
	return false
}

// onPlayerKicked means another connection claimed this identity. The
// connection and all match state are dropped, but the identity itself
// stays committed: the user can reconnect and reclaim the seat.
func (c *Client) onPlayerKicked(env protocol.Envelope) {
	var msg protocol.PlayerKicked
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	c.log.Warn("session claimed elsewhere", "username", msg.Username)
	c.resetAllLocked()
	c.lastNotice = fmt.Sprintf("session for %q was claimed by another connection", msg.Username)
}

func (c *Client) onPresence(env protocol.Envelope) {
	var msg protocol.PlayerPresence
	if err := env.Decode(&msg); err != nil {
		c.log.Warn("dropping message", "err", err)
		return
	}
	c.log.Info("presence change", "type", env.Type, "seat", msg.Seat, "username", msg.Username)
}

// reconcileLocked runs after every dispatch and restores the
// cross-field invariants no single handler can guarantee alone:
// the drawn-tile highlight resolves only against a hand the current
// message actually replaced, and the selection never outlives the
// offer or the tile it pointed at.
func (c *Client) reconcileLocked(prevHand []int) {
	if c.handUpdated {
		switch {
		case len(c.hand) == len(prevHand)+1:
			if c.resolver.Pending() {
				if idx, ok := c.resolver.Resolve(prevHand, c.hand); ok {
					c.lastDrawn = idx
				} else {
					c.lastDrawn = noIndex
				}
			}
		case len(c.hand) < len(prevHand):
			c.lastDrawn = noIndex
			c.resolver.Clear()
		default:
			// Equal-length or multi-tile replacement is a resync, not a
			// draw landing; the armed expectation can no longer match.
			// The highlight itself survives an equal-length refresh.
			c.resolver.Clear()
		}
	}

	if c.selected != noIndex {
		if c.selected >= len(c.hand) || !c.hasDiscardOfferLocked(c.hand[c.selected]) {
			c.selected = noIndex
		}
	}
}
