package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masterstrokeglobal/leadboard/internal/adapters/storage"
	"github.com/masterstrokeglobal/leadboard/internal/domain"
)

func finishedRound(id int64) (domain.Round, []*domain.TrackedItem, []domain.Standing) {
	round := domain.Round{
		ID:               id,
		PlacementEndTime: time.Now().Add(-10 * time.Minute),
		EndTime:          time.Now().Add(-5 * time.Minute),
	}
	items := []*domain.TrackedItem{
		{
			MarketItem:    domain.MarketItem{ID: 1, Bitcode: "BTCUSDT", Name: "Bitcoin"},
			Price:         110,
			InitialPrice:  100,
			ChangeValue:   10,
			ChangePercent: "10.00000",
			Rank:          1,
		},
		{
			MarketItem:    domain.MarketItem{ID: 2, Bitcode: "ETHUSDT", Name: "Ethereum"},
			Price:         190,
			InitialPrice:  200,
			ChangeValue:   -5,
			ChangePercent: "-5.00000",
			Rank:          2,
		},
	}
	standings := []domain.Standing{
		{UserID: 1, Username: "alice", BettedAmount: 100, PotentialReturn: 110, Horse: 1, CurrentRank: 1, ChangePercent: 10},
		{UserID: 2, Username: "bob", BettedAmount: 50, PotentialReturn: 47.5, Horse: 2, CurrentRank: 2, ChangePercent: -5},
	}
	return round, items, standings
}

func TestSQLiteStorage_SaveAndGetHistory(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	round, items, standings := finishedRound(42)
	require.NoError(t, db.SaveResult(context.Background(), round, items, standings))

	from := time.Now().UTC().Add(-time.Minute)
	to := time.Now().UTC().Add(time.Minute)
	history, err := db.GetHistory(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, history, 1)

	assert.Equal(t, int64(42), history[0].RoundID)
	assert.Equal(t, 2, history[0].Items)
	assert.Equal(t, 2, history[0].Users)
	assert.Equal(t, "BTCUSDT", history[0].TopBitcode)
	assert.InDelta(t, 10.0, history[0].TopChange, 0.001)
}

func TestSQLiteStorage_SaveEmptyRound(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	round := domain.Round{ID: 7}
	require.NoError(t, db.SaveResult(context.Background(), round, nil, nil))

	history, err := db.GetHistory(context.Background(),
		time.Now().UTC().Add(-time.Minute), time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 0, history[0].Items)
	assert.Equal(t, "", history[0].TopBitcode)
}

func TestSQLiteStorage_SaveIsIdempotentPerRound(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	round, items, standings := finishedRound(42)

	// Una re-finalización (p.ej. reinicio del servicio) reemplaza, no duplica.
	require.NoError(t, db.SaveResult(ctx, round, items, standings))
	require.NoError(t, db.SaveResult(ctx, round, items, standings))

	history, err := db.GetHistory(ctx,
		time.Now().UTC().Add(-time.Minute), time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSQLiteStorage_GetHistory_EmptyRange(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	history, err := db.GetHistory(context.Background(),
		time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSQLiteStorage_MultipleRounds(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	for _, id := range []int64{1, 2, 3} {
		round, items, standings := finishedRound(id)
		require.NoError(t, db.SaveResult(ctx, round, items, standings))
	}

	history, err := db.GetHistory(ctx,
		time.Now().UTC().Add(-time.Minute), time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, history, 3)
}
