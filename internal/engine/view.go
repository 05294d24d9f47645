package engine

import (
	"fmt"
	"strconv"
	"strings"

	"mahjong-duo-client/internal/protocol"
)

// Read-side projections. Everything here takes the read lock and
// returns copies; callers never see live slices that a later message
// could mutate underneath them.

func (c *Client) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) InGame() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inGame
}

// Seat is the local seat index, -1 before room_joined.
func (c *Client) Seat() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seat
}

// SelfName prefers the name the match snapshot reported, falling back
// to the committed identity's display name.
func (c *Client) SelfName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selfName != "" {
		return c.selfName
	}
	return c.session.Nickname()
}

func (c *Client) Opponent() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opponent
}

func (c *Client) Hand() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int(nil), c.hand...)
}

func (c *Client) Melds() (self, opponent []protocol.Meld) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]protocol.Meld(nil), c.meldsSelf...),
		append([]protocol.Meld(nil), c.meldsOpp...)
}

func (c *Client) Discards() (self, opponent []int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int(nil), c.discardsSelf...),
		append([]int(nil), c.discardsOpp...)
}

// RemoteHandCount is the estimated opponent hand size, clamped to
// [0, 14] and corrected by every sync_view.
func (c *Client) RemoteHandCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remoteCount
}

func (c *Client) Events() []protocol.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]protocol.Event(nil), c.events...)
}

func (c *Client) Actions() []protocol.Action {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]protocol.Action(nil), c.actions...)
}

func (c *Client) Result() *protocol.GameResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.result == nil {
		return nil
	}
	copied := *c.result
	return &copied
}

// LastNotice is the most recent server-supplied user-facing message.
func (c *Client) LastNotice() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastNotice
}

// LastDrawnIndex is the highlighted hand position, -1 when no
// highlight applies.
func (c *Client) LastDrawnIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastDrawn
}

// DiscardOffers is the subset of current offers the tile picker binds
// to; OtherOffers is everything else (claims, wins, pass) rendered as
// buttons.
func (c *Client) DiscardOffers() []protocol.Action {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []protocol.Action
	for _, a := range c.actions {
		if a.Type == protocol.ActDiscard {
			out = append(out, a)
		}
	}
	return out
}

func (c *Client) OtherOffers() []protocol.Action {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []protocol.Action
	for _, a := range c.actions {
		if a.Type != protocol.ActDiscard {
			out = append(out, a)
		}
	}
	return out
}

// SelectedIndex is the toggled hand selection, -1 when nothing is
// selected.
func (c *Client) SelectedIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// SelectedTile resolves the selection to its tile id.
func (c *Client) SelectedTile() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == noIndex || c.selected >= len(c.hand) {
		return 0, false
	}
	return c.hand[c.selected], true
}

// SelectedDiscard is the discard offer the confirm control would send,
// nil when the selection is empty or not discardable.
func (c *Client) SelectedDiscard() *protocol.Action {
	c.mu.RLock()
	defer c.mu.RUnlock()
	offer := c.selectedDiscardLocked()
	if offer == nil {
		return nil
	}
	copied := *offer
	return &copied
}

func (c *Client) CanDiscardSelected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selectedDiscardLocked() != nil
}

// IsReady reports whether the local seat is confirmed ready.
func (c *Client) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReadyLocked()
}

// OnlineSummary counts occupied seats out of the room capacity.
func (c *Client) OnlineSummary() (online, total int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, occupied := range c.online {
		if occupied {
			online++
		}
	}
	return online, len(c.online)
}

// ReadySummary counts confirmed-ready seats.
func (c *Client) ReadySummary() (ready, total int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ok := range c.ready {
		if ok {
			ready++
		}
	}
	return ready, len(c.ready)
}

// OnlineText is the presentation string for seat presence, one clause
// per seat.
func (c *Client) OnlineText() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.online) == 0 {
		return "no seat information"
	}
	parts := make([]string, len(c.online))
	for i, occupied := range c.online {
		state := "offline"
		if occupied {
			state = "online"
		}
		parts[i] = fmt.Sprintf("seat %d: %s", i, state)
	}
	return strings.Join(parts, " | ")
}

// ReadyText is the presentation string for the ready tally.
func (c *Client) ReadyText() string {
	ready, total := c.ReadySummary()
	return fmt.Sprintf("%d/%d ready", ready, total)
}

// FinalSelf and FinalOpponent expose the fully revealed end-of-match
// seats. The wire keys seats as strings, so lookup goes through the
// local seat index.
func (c *Client) FinalSelf() (protocol.FinalSeat, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.finalSeatLocked(c.seat)
}

func (c *Client) FinalOpponent() (protocol.FinalSeat, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.seat != 0 && c.seat != 1 {
		return protocol.FinalSeat{}, false
	}
	return c.finalSeatLocked(1 - c.seat)
}

func (c *Client) finalSeatLocked(seat int) (protocol.FinalSeat, bool) {
	if c.finalView == nil || seat == noIndex {
		return protocol.FinalSeat{}, false
	}
	fs, ok := c.finalView.Players[strconv.Itoa(seat)]
	return fs, ok
}

// WallRemaining is the leftover wall revealed at game end, nil before
// then.
func (c *Client) WallRemaining() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.finalView == nil {
		return nil
	}
	return append([]int(nil), c.finalView.WallRemaining...)
}

// LiveScore summarizes fan standing from the exposed melds, seat 0
// of the summary always being the local player.
func (c *Client) LiveScore() FanSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	melds := [2][]protocol.Meld{c.meldsSelf, c.meldsOpp}
	return Summarizer{}.Summarize(melds)
}
