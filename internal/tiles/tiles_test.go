package tiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayText_SuitedTiles(t *testing.T) {
	// First tile of each family
	assert.Equal(t, "1 of Characters", DisplayText(0))
	assert.Equal(t, "1 of Bamboo", DisplayText(9))
	assert.Equal(t, "1 of Dots", DisplayText(18))

	// Last tile of each family
	assert.Equal(t, "9 of Characters", DisplayText(8))
	assert.Equal(t, "9 of Bamboo", DisplayText(17))
	assert.Equal(t, "9 of Dots", DisplayText(26))

	assert.Equal(t, "5 of Bamboo", DisplayText(13))
}

func TestDisplayText_Honors(t *testing.T) {
	assert.Equal(t, "East Wind", DisplayText(27))
	assert.Equal(t, "North Wind", DisplayText(30))
	assert.Equal(t, "Red Dragon", DisplayText(31))
	assert.Equal(t, "White Dragon", DisplayText(33))
}

func TestDisplayText_InvalidNeverPanics(t *testing.T) {
	for _, id := range []int{-1, -100, 34, 35, 1 << 30, Hidden} {
		assert.Equal(t, Unknown, DisplayText(id), "id %d", id)
	}
}

func TestAssetKey(t *testing.T) {
	assert.Equal(t, "f1m", AssetKey(0))
	assert.Equal(t, "f9p", AssetKey(26))
	assert.Equal(t, "f4s", AssetKey(12))
	assert.Equal(t, "h1", AssetKey(27))
	assert.Equal(t, "h7", AssetKey(33))

	assert.Equal(t, "", AssetKey(-5))
	assert.Equal(t, "", AssetKey(34))
}

func TestSuitAndRank(t *testing.T) {
	suit, ok := SuitOf(22)
	assert.True(t, ok)
	assert.Equal(t, Dots, suit)
	assert.Equal(t, 5, RankOf(22))

	suit, ok = SuitOf(29)
	assert.True(t, ok)
	assert.Equal(t, Honors, suit)
	assert.Equal(t, 3, RankOf(29))

	_, ok = SuitOf(-1)
	assert.False(t, ok)
	assert.Equal(t, 0, RankOf(99))
}
