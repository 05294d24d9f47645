package protocol

import (
	"encoding/json"
	"fmt"
)

// The match server speaks flat JSON objects discriminated by a "type"
// field; there is no payload envelope. Inbound shapes mirror what the
// server actually sends, outbound shapes mirror what it accepts.

// Inbound message types.
const (
	TypeAuthenticationSuccess = "authentication_success"
	TypeRoomJoined            = "room_joined"
	TypeRoomStatus            = "room_status"
	TypeReadyStatus           = "ready_status"
	TypeGameStarted           = "game_started"
	TypeYouAre                = "you_are"
	TypeSyncHand              = "sync_hand"
	TypeSyncView              = "sync_view"
	TypeChoices               = "choices"
	TypeEvent                 = "event"
	TypeGameEnd               = "game_end"
	TypeError                 = "error"
	TypePlayerKicked          = "player_kicked"
	TypePlayerDisconnected    = "player_disconnected"
	TypePlayerReconnected     = "player_reconnected"
	TypeMutualReplacement     = "mutual_replacement_completed"
)

// Outbound message types.
const (
	TypeAuthenticate = "authenticate"
	TypeJoinRoom     = "join_room"
	TypeReady        = "ready"
	TypeAct          = "act"
)

// Action and event discriminants shared by both directions.
const (
	ActDiscard = "discard"
	ActDraw    = "draw"
	ActPeng    = "peng"
	ActPong    = "pong"
	ActKong    = "kong"
	ActHu      = "hu"
	ActPass    = "pass"
)

// Kong styles.
const (
	KongConcealed = "concealed"
	KongAdded     = "added"
	KongExposed   = "exposed"
)

// Meld kinds as the server names them.
const (
	MeldPeng          = "peng"
	MeldPong          = "pong"
	MeldChow          = "chow"
	MeldKongConcealed = "kong_concealed"
	MeldKongAdded     = "kong_added"
	MeldKongExposed   = "kong_exposed"
	MeldHu            = "hu"
)

// Envelope carries a decoded type discriminant alongside the raw bytes,
// so each handler unmarshals only the shape it declares.
type Envelope struct {
	Type string
	Raw  json.RawMessage
}

// DecodeEnvelope peeks the type field without committing to a shape.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Envelope{}, fmt.Errorf("malformed message: %w", err)
	}
	if head.Type == "" {
		return Envelope{}, fmt.Errorf("message missing type discriminant")
	}
	return Envelope{Type: head.Type, Raw: data}, nil
}

// Decode unmarshals the envelope body into the given message shape.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Raw, v); err != nil {
		return fmt.Errorf("malformed %s message: %w", e.Type, err)
	}
	return nil
}

// TileList decodes a tile array in which the server may blank out
// entries it does not want this client to see (opponent concealed
// kongs, win-meld placeholders). Hidden entries decode to -1.
type TileList []int

func (t *TileList) UnmarshalJSON(data []byte) error {
	var raw []*int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]int, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = -1
		} else {
			out[i] = *v
		}
	}
	*t = out
	return nil
}

// Identity is the authenticated user as the server reports it, and the
// exact shape persisted to the durability store.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Meld is a server-asserted exposed/concealed set. Kind never changes
// once created; a pung upgraded to a kong arrives as a new meld entry.
type Meld struct {
	Kind  string   `json:"kind"`
	Tiles TileList `json:"tiles"`
}

// Action is one server-offered candidate move, echoed back verbatim in
// an act request.
type Action struct {
	Type  string `json:"type"`
	Tile  *int   `json:"tile,omitempty"`
	Style string `json:"style,omitempty"`
}

// Event is one incremental game occurrence broadcast to both seats.
type Event struct {
	Type  string `json:"type"`
	Seat  int    `json:"seat"`
	Tile  *int   `json:"tile,omitempty"`
	Style string `json:"style,omitempty"`
}

type AuthenticationSuccess struct {
	User Identity `json:"user"`
}

type RoomJoined struct {
	RoomID string `json:"room_id"`
	Seat   int    `json:"seat"`
}

// RoomStatus is the per-seat online snapshot; index is the seat.
type RoomStatus struct {
	Players []bool `json:"players"`
}

// ReadyStatus keys seats as strings because JSON object keys always
// arrive that way.
type ReadyStatus struct {
	Ready map[string]bool `json:"ready"`
}

type GameStarted struct {
	Seed      int64 `json:"seed"`
	FirstTurn int   `json:"first_turn"`
}

// SeatView is the seat-relative snapshot shared by you_are and
// sync_view. Fields the server omitted stay nil so the engine can keep
// prior values.
type SeatView struct {
	Seat         *int   `json:"seat,omitempty"`
	Username     string `json:"username,omitempty"`
	Opponent     string `json:"opponent,omitempty"`
	Hand         []int  `json:"hand"`
	MeldsSelf    []Meld `json:"melds_self"`
	MeldsOpp     []Meld `json:"melds_opp"`
	DiscardsSelf []int  `json:"discards_self"`
	DiscardsOpp  []int  `json:"discards_opp"`
	OppHandCount *int   `json:"opp_hand_count,omitempty"`
}

type SyncHand struct {
	Hand []int `json:"hand"`
}

type Choices struct {
	Actions []Action `json:"actions"`
}

type EventMessage struct {
	Ev Event `json:"ev"`
}

// GameResult is the server's authoritative outcome. Score is passed
// through opaque: scoring authority never moves client-side.
type GameResult struct {
	Winner *int            `json:"winner"`
	Reason string          `json:"reason"`
	Tile   *int            `json:"tile,omitempty"`
	Score  json.RawMessage `json:"score,omitempty"`
}

// FinalSeat is one seat's fully revealed end-of-match state.
type FinalSeat struct {
	Hand     TileList `json:"hand"`
	Melds    []Meld   `json:"melds"`
	Discards []int    `json:"discards"`
}

// FinalView keys seats as strings, matching the wire shape.
type FinalView struct {
	Players       map[string]FinalSeat `json:"players"`
	WallRemaining []int                `json:"wall_remaining"`
}

type GameEnd struct {
	Result    *GameResult `json:"result"`
	FinalView *FinalView  `json:"final_view"`
}

type ErrorMessage struct {
	Detail string `json:"detail"`
}

type PlayerKicked struct {
	Username string `json:"username"`
	Seat     *int   `json:"seat,omitempty"`
}

// PlayerPresence covers player_disconnected and player_reconnected.
type PlayerPresence struct {
	Seat     int    `json:"seat"`
	Username string `json:"username"`
}

// Outbound shapes.

type Authenticate struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type JoinRoom struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type Ready struct {
	Type string `json:"type"`
}

type Act struct {
	Type   string `json:"type"`
	Action Action `json:"action"`
}

func NewAuthenticate(username, password string) Authenticate {
	return Authenticate{Type: TypeAuthenticate, Username: username, Password: password}
}

func NewJoinRoom(roomID string) JoinRoom {
	return JoinRoom{Type: TypeJoinRoom, RoomID: roomID}
}

func NewReady() Ready {
	return Ready{Type: TypeReady}
}

func NewAct(action Action) Act {
	return Act{Type: TypeAct, Action: action}
}

// IsKongKind reports whether a meld kind is any of the three kong
// styles.
func IsKongKind(kind string) bool {
	switch kind {
	case MeldKongConcealed, MeldKongAdded, MeldKongExposed:
		return true
	}
	return false
}
