package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placement(userID int64, username string, itemID int64, amount float64) Placement {
	return Placement{
		User:       &PlacementUser{ID: userID, Username: username},
		MarketItem: &PlacementTarget{ID: itemID},
		Amount:     amount,
	}
}

func snapshotAB() []*TrackedItem {
	return []*TrackedItem{
		trackedItem(1, "A", 10),
		trackedItem(2, "B", -5),
	}
}

func TestAggregateStandings_TwoUsers(t *testing.T) {
	// user 1 apuesta 100 a A (+10%), user 2 apuesta 50 a B (-5%)
	placements := []Placement{
		placement(1, "alice", 1, 100),
		placement(2, "bob", 2, 50),
	}
	standings := AggregateStandings(placements, snapshotAB())
	require.Len(t, standings, 2)

	assert.Equal(t, int64(1), standings[0].UserID)
	assert.InDelta(t, 110.0, standings[0].PotentialReturn, 0.001)
	assert.Equal(t, 1, standings[0].CurrentRank)
	assert.InDelta(t, 10.0, standings[0].ChangePercent, 0.001)

	assert.Equal(t, int64(2), standings[1].UserID)
	assert.InDelta(t, 47.5, standings[1].PotentialReturn, 0.001)
	assert.Equal(t, 2, standings[1].CurrentRank)
	assert.InDelta(t, -5.0, standings[1].ChangePercent, 0.001)
}

func TestAggregateStandings_MultiplePlacementsPerUser(t *testing.T) {
	placements := []Placement{
		placement(7, "carol", 1, 100),
		placement(7, "carol", 2, 100),
	}
	standings := AggregateStandings(placements, snapshotAB())
	require.Len(t, standings, 1)

	assert.InDelta(t, 200.0, standings[0].BettedAmount, 0.001)
	// 100×1.10 + 100×0.95 = 205
	assert.InDelta(t, 205.0, standings[0].PotentialReturn, 0.001)
	assert.InDelta(t, 2.5, standings[0].ChangePercent, 0.001)
}

func TestAggregateStandings_SeatsByAscendingUserID(t *testing.T) {
	// Los asientos se asignan por id ascendente, no por orden de llegada.
	placements := []Placement{
		placement(30, "z", 1, 10),
		placement(10, "x", 1, 10),
		placement(20, "y", 1, 10),
	}
	standings := AggregateStandings(placements, snapshotAB())
	require.Len(t, standings, 3)

	seats := make(map[int64]int)
	for _, st := range standings {
		seats[st.UserID] = st.Horse
	}
	assert.Equal(t, 1, seats[10])
	assert.Equal(t, 2, seats[20])
	assert.Equal(t, 3, seats[30])
}

func TestAggregateStandings_SkipsMalformed(t *testing.T) {
	placements := []Placement{
		placement(1, "alice", 1, 100),
		{User: nil, MarketItem: &PlacementTarget{ID: 1}, Amount: 50},
		{User: &PlacementUser{ID: 2, Username: "bob"}, MarketItem: nil, Amount: 50},
	}
	standings := AggregateStandings(placements, snapshotAB())
	require.Len(t, standings, 1)
	assert.Equal(t, int64(1), standings[0].UserID)
	assert.InDelta(t, 100.0, standings[0].BettedAmount, 0.001)
}

func TestAggregateStandings_UnknownMarketItemSkipped(t *testing.T) {
	// Una apuesta a un símbolo fuera del snapshot se descarta entera:
	// no aparece en ningún agregado ni lanza error.
	placements := []Placement{
		placement(1, "alice", 999, 100),
		placement(2, "bob", 1, 50),
	}
	standings := AggregateStandings(placements, snapshotAB())
	require.Len(t, standings, 1)
	assert.Equal(t, int64(2), standings[0].UserID)
}

func TestAggregateStandings_Conservation(t *testing.T) {
	placements := []Placement{
		placement(1, "a", 1, 100),
		placement(2, "b", 2, 50),
		placement(1, "a", 2, 25),
		placement(3, "c", 999, 77), // descartada: símbolo desconocido
	}
	standings := AggregateStandings(placements, snapshotAB())

	var total float64
	for _, st := range standings {
		total += st.BettedAmount
	}
	assert.InDelta(t, 175.0, total, 0.001)
}

func TestAggregateStandings_Empty(t *testing.T) {
	standings := AggregateStandings(nil, snapshotAB())
	assert.Empty(t, standings)
	assert.NotNil(t, standings)
}

func TestAggregateStandings_RanksDense(t *testing.T) {
	placements := []Placement{
		placement(1, "a", 1, 100),
		placement(2, "b", 1, 100), // mismo retorno: empate estable
		placement(3, "c", 2, 100),
	}
	standings := AggregateStandings(placements, snapshotAB())
	require.Len(t, standings, 3)

	for i, st := range standings {
		assert.Equal(t, i+1, st.CurrentRank)
	}
	// Empate entre user 1 y 2 conserva orden de id ascendente.
	assert.Equal(t, int64(1), standings[0].UserID)
	assert.Equal(t, int64(2), standings[1].UserID)
	assert.Equal(t, int64(3), standings[2].UserID)
}

func TestAggregateStandings_ZeroBettedAmountNoChangePercent(t *testing.T) {
	placements := []Placement{placement(1, "a", 1, 0)}
	standings := AggregateStandings(placements, snapshotAB())
	require.Len(t, standings, 1)
	assert.Equal(t, 0.0, standings[0].ChangePercent)
}
