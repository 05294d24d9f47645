package engine

import (
	"fmt"

	"mahjong-duo-client/internal/protocol"
)

// The fan summary is a live, provisional scoring view derived from the
// melds both seats have exposed so far. It is not the authoritative
// result; the server's game_end score replaces it wholesale.

// FanLine is one named contribution to a seat's breakdown.
type FanLine struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
	Fan    int    `json:"fan"`
}

// SeatFan is one seat's provisional breakdown. NetChange is the signed
// zero-sum delta against the other seat; NetFan is the headline figure
// floored at zero so the trailing seat never displays a negative.
type SeatFan struct {
	Lines     []FanLine `json:"lines"`
	Total     int       `json:"total"`
	NetFan    int       `json:"net_fan"`
	NetChange int       `json:"net_change"`
}

// FanSummary holds both seats, indexed by seat number.
type FanSummary struct {
	Seats [2]SeatFan `json:"seats"`
}

// Summarizer derives fan summaries. Unit is the label used in detail
// strings and defaults to "fan".
type Summarizer struct {
	Unit string
}

func (s Summarizer) unit() string {
	if s.Unit == "" {
		return "fan"
	}
	return s.Unit
}

// Summarize counts qualifying melds per seat. Every kong, regardless
// of style, contributes one flat unit. Zero-magnitude lines are
// excluded from the breakdown.
func (s Summarizer) Summarize(melds [2][]protocol.Meld) FanSummary {
	var out FanSummary

	for seat := 0; seat < 2; seat++ {
		kongs := 0
		for _, m := range melds[seat] {
			if protocol.IsKongKind(m.Kind) {
				kongs++
			}
		}

		sf := SeatFan{}
		if kongs > 0 {
			sf.Lines = append(sf.Lines, FanLine{
				Name:   "kongs",
				Detail: fmt.Sprintf("%d kongs, +1 %s each", kongs, s.unit()),
				Fan:    kongs,
			})
			sf.Total = kongs
		}
		out.Seats[seat] = sf
	}

	diff := out.Seats[0].Total - out.Seats[1].Total
	out.Seats[0].NetChange = diff
	out.Seats[1].NetChange = -diff
	out.Seats[0].NetFan = max(diff, 0)
	out.Seats[1].NetFan = max(-diff, 0)

	return out
}
