package tiles

import "fmt"

// Tile identifiers are small integers assigned by the match server:
// 0-26 encode three suited families of nine ranks (family = id/9,
// rank = id%9 + 1), 27-33 the seven honor tiles (rank = id - 26).
// The codec is total over all integers; anything outside that range,
// including the hidden-tile placeholder, maps to the unknown sentinel.

// Hidden marks a tile whose value the server withholds (opponent's
// concealed kong, win-meld placeholders).
const Hidden = -1

// Unknown is the sentinel display text for out-of-range identifiers.
const Unknown = "unknown"

type Suit int

const (
	Characters Suit = iota
	Bamboo
	Dots
	Honors
)

var suitString = map[Suit]string{
	Characters: "Characters",
	Bamboo:     "Bamboo",
	Dots:       "Dots",
	Honors:     "Honors",
}

func (s Suit) String() string {
	return suitString[s]
}

// suitAsset matches the server's tile sprite naming: m/s/p for the
// suited families.
var suitAsset = map[Suit]string{
	Characters: "m",
	Bamboo:     "s",
	Dots:       "p",
}

var honorString = [...]string{
	"", // honor ranks start at 1
	"East Wind",
	"South Wind",
	"West Wind",
	"North Wind",
	"Red Dragon",
	"Green Dragon",
	"White Dragon",
}

const (
	suitedMax = 26
	honorMax  = 33
)

// Valid reports whether id is a tile the codec can name.
func Valid(id int) bool {
	return id >= 0 && id <= honorMax
}

// SuitOf returns the family of a valid tile; Honors for 27-33.
func SuitOf(id int) (Suit, bool) {
	if !Valid(id) {
		return 0, false
	}
	if id > suitedMax {
		return Honors, true
	}
	return Suit(id / 9), true
}

// RankOf returns the 1-based rank within the tile's family, 0 for
// invalid identifiers.
func RankOf(id int) int {
	if !Valid(id) {
		return 0
	}
	if id > suitedMax {
		return id - 26
	}
	return id%9 + 1
}

// DisplayText renders a tile as semantic text ("3 of Bamboo",
// "Red Dragon"). Invalid identifiers render as the unknown sentinel,
// never an error.
func DisplayText(id int) string {
	suit, ok := SuitOf(id)
	if !ok {
		return Unknown
	}
	if suit == Honors {
		return honorString[RankOf(id)]
	}
	return fmt.Sprintf("%d of %s", RankOf(id), suit)
}

// AssetKey returns a stable sprite key ("f3s" for suited tiles, "h5"
// for honors) or the empty string for invalid identifiers.
func AssetKey(id int) string {
	suit, ok := SuitOf(id)
	if !ok {
		return ""
	}
	if suit == Honors {
		return fmt.Sprintf("h%d", RankOf(id))
	}
	return fmt.Sprintf("f%d%s", RankOf(id), suitAsset[suit])
}
