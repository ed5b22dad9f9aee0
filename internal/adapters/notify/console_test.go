package notify_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masterstrokeglobal/leadboard/internal/adapters/notify"
	"github.com/masterstrokeglobal/leadboard/internal/domain"
)

func sampleItems() []*domain.TrackedItem {
	return []*domain.TrackedItem{
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
}

func TestConsole_NotifySnapshotCompact(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	err := c.NotifySnapshot(context.Background(), 42, sampleItems())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "round 42")
	assert.Contains(t, out, "#1 BTCUSDT 10.00000%")
	assert.Contains(t, out, "#2 ETHUSDT -5.00000%")
}

func TestConsole_NotifySnapshotEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	require.NoError(t, c.NotifySnapshot(context.Background(), 42, nil))
	assert.Empty(t, buf.String())
}

func TestConsole_NotifyFinal(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	standings := []domain.Standing{
		{UserID: 1, Username: "alice", BettedAmount: 100, PotentialReturn: 110, Horse: 1, CurrentRank: 1, ChangePercent: 10},
	}
	err := c.NotifyFinal(context.Background(), domain.Round{ID: 42}, sampleItems(), standings)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "round 42 finished")
	assert.Contains(t, out, "BTCUSDT")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "110.00")
}

func TestConsole_NotifyFinalNoPlacements(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	err := c.NotifyFinal(context.Background(), domain.Round{ID: 7}, sampleItems(), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no placements")
}
