// Package commerce holds the external-facing gift hooks: price lookups and
// the purchase link. Both are mocks with the shape a real provider needs.
package commerce

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
)

// PriceSource quotes a current price for an item.
type PriceSource interface {
	CurrentPrice(ctx context.Context, item gift.Recommendation) (float64, error)
}

// MockPriceSource draws a price within PriceVariation of the original,
// floored at PriceFloorRatio of it.
type MockPriceSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockPriceSource seeds a mock source. Equal seeds yield equal sequences.
func NewMockPriceSource(seed uint64) *MockPriceSource {
	return &MockPriceSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// CurrentPrice implements PriceSource.
func (m *MockPriceSource) CurrentPrice(ctx context.Context, item gift.Recommendation) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.NewCancelled("price lookup")
	}
	m.mu.Lock()
	u := m.rng.Float64()
	m.mu.Unlock()
	return gift.RefreshedPrice(item.OriginalPrice, u), nil
}

// FixedPriceSource always quotes Price. Useful in tests.
type FixedPriceSource struct {
	Price float64
	Err   error
}

// CurrentPrice implements PriceSource.
func (f FixedPriceSource) CurrentPrice(context.Context, gift.Recommendation) (float64, error) {
	return f.Price, f.Err
}

// DefaultAffiliateTag is used when no tag is configured.
const DefaultAffiliateTag = "giftcuratr-20"

const productBaseURL = "https://www.amazon.com/dp/"

// Buyer builds purchase links. It never contacts the store.
type Buyer struct {
	tag    string
	logger *zap.Logger
}

// NewBuyer returns a Buyer tagging links with tag.
func NewBuyer(tag string, logger *zap.Logger) *Buyer {
	if strings.TrimSpace(tag) == "" {
		tag = DefaultAffiliateTag
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Buyer{tag: tag, logger: logger}
}

// Link returns the product URL for asin.
func (b *Buyer) Link(asin string) (string, error) {
	asin = strings.TrimSpace(asin)
	if asin == "" {
		return "", errors.NewInvalidRequest("item has no ASIN")
	}
	q := url.Values{"tag": {b.tag}}
	return fmt.Sprintf("%s%s?%s", productBaseURL, url.PathEscape(asin), q.Encode()), nil
}

// Buy records a purchase intent for item and returns its link.
func (b *Buyer) Buy(ctx context.Context, item gift.GiftItem) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.NewCancelled("buy")
	}
	link, err := b.Link(item.ASIN)
	if err != nil {
		return "", err
	}
	b.logger.Info("buy requested",
		zap.Int("item_id", item.ID),
		zap.String("asin", item.ASIN),
		zap.String("url", link),
	)
	return link, nil
}
