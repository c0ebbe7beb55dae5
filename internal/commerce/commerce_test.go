package commerce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
)

func TestMockPriceSource_Bounds(t *testing.T) {
	src := NewMockPriceSource(42)
	item := gift.Recommendation{OriginalPrice: 100}

	for i := 0; i < 500; i++ {
		p, err := src.CurrentPrice(context.Background(), item)
		require.NoError(t, err)
		require.GreaterOrEqual(t, p, 97.0)
		require.LessOrEqual(t, p, 103.0)
	}
}

func TestMockPriceSource_Deterministic(t *testing.T) {
	item := gift.Recommendation{OriginalPrice: 25}
	a, b := NewMockPriceSource(7), NewMockPriceSource(7)
	for i := 0; i < 10; i++ {
		pa, _ := a.CurrentPrice(context.Background(), item)
		pb, _ := b.CurrentPrice(context.Background(), item)
		require.Equal(t, pa, pb)
	}
}

func TestMockPriceSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockPriceSource(1).CurrentPrice(ctx, gift.Recommendation{OriginalPrice: 10})
	require.True(t, errors.Is(err, errors.ErrCancelled))
}

func TestBuyer_Link(t *testing.T) {
	b := NewBuyer("", nil)
	link, err := b.Link("B08N5WRWNW")
	require.NoError(t, err)
	require.Equal(t, "https://www.amazon.com/dp/B08N5WRWNW?tag=giftcuratr-20", link)

	_, err = b.Link("  ")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestBuyer_BuyLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	b := NewBuyer("mytag-21", zap.New(core))

	link, err := b.Buy(context.Background(), gift.GiftItem{ID: 4, ASIN: "B0ABC"})
	require.NoError(t, err)
	require.Equal(t, "https://www.amazon.com/dp/B0ABC?tag=mytag-21", link)

	entries := logs.FilterMessage("buy requested").All()
	require.Len(t, entries, 1)
	require.Equal(t, link, entries[0].ContextMap()["url"])
	require.Equal(t, int64(4), entries[0].ContextMap()["item_id"])
}
