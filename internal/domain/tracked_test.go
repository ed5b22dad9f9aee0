package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackedItem(id int64, bitcode string, change float64) *TrackedItem {
	return &TrackedItem{
		MarketItem:    MarketItem{ID: id, Bitcode: bitcode},
		ChangeValue:   change,
		ChangePercent: FormatChange(change),
	}
}

func TestNewTrackedItems_ZeroState(t *testing.T) {
	items := NewTrackedItems([]MarketItem{
		{ID: 1, Bitcode: "BTCUSDT"},
		{ID: 2, Bitcode: "ETHUSDT"},
	})
	require.Len(t, items, 2)

	for i, it := range items {
		assert.Equal(t, 0.0, it.Price)
		assert.Equal(t, 0.0, it.InitialPrice)
		assert.Equal(t, "0", it.ChangePercent)
		assert.Equal(t, i+1, it.Rank)
	}
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "10.00000", FormatChange(10))
	assert.Equal(t, "-5.00000", FormatChange(-5))
	assert.Equal(t, "0.00000", FormatChange(0))
	assert.Equal(t, "0.33333", FormatChange(1.0/3))
}

func TestRankByChange_DescendingDense(t *testing.T) {
	items := []*TrackedItem{
		trackedItem(1, "AAA", -5),
		trackedItem(2, "BBB", 10),
		trackedItem(3, "CCC", 2.5),
	}
	RankByChange(items)

	assert.Equal(t, "BBB", items[0].Bitcode)
	assert.Equal(t, "CCC", items[1].Bitcode)
	assert.Equal(t, "AAA", items[2].Bitcode)
	for i, it := range items {
		assert.Equal(t, i+1, it.Rank)
	}
}

func TestRankByChange_Density(t *testing.T) {
	items := []*TrackedItem{
		trackedItem(1, "A", 3), trackedItem(2, "B", 3),
		trackedItem(3, "C", -1), trackedItem(4, "D", 0), trackedItem(5, "E", 3),
	}
	RankByChange(items)

	seen := make(map[int]bool)
	for _, it := range items {
		assert.False(t, seen[it.Rank], "rank %d duplicado", it.Rank)
		seen[it.Rank] = true
		assert.GreaterOrEqual(t, it.Rank, 1)
		assert.LessOrEqual(t, it.Rank, len(items))
	}
}

func TestRankByChange_StableTies(t *testing.T) {
	items := []*TrackedItem{
		trackedItem(1, "A", 5), trackedItem(2, "B", 5), trackedItem(3, "C", 5),
	}
	RankByChange(items)

	// Empates conservan el orden de entrada.
	assert.Equal(t, "A", items[0].Bitcode)
	assert.Equal(t, "B", items[1].Bitcode)
	assert.Equal(t, "C", items[2].Bitcode)
}

func TestRankByChange_MissingChangeSortsLast(t *testing.T) {
	broken := &TrackedItem{MarketItem: MarketItem{ID: 9, Bitcode: "BAD"}, ChangePercent: ""}
	garbage := &TrackedItem{MarketItem: MarketItem{ID: 10, Bitcode: "UGH"}, ChangePercent: "n/a", ChangeValue: 99}
	items := []*TrackedItem{broken, trackedItem(1, "OK", -50), garbage}
	RankByChange(items)

	assert.Equal(t, "OK", items[0].Bitcode)
	assert.Equal(t, 1, items[0].Rank)
	// Los no parseables van al fondo con el centinela -Inf, orden estable.
	assert.Equal(t, "BAD", items[1].Bitcode)
	assert.Equal(t, "UGH", items[2].Bitcode)
}
