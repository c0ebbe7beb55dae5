package gift

import (
	"fmt"
	"math"
	"time"
)

// DefaultTTL is the price window stamped on decorated recommendations.
const DefaultTTL = 23 * time.Hour

// Price refresh rule: original ± PriceVariation, never below PriceFloorRatio
// of the original.
const (
	PriceVariation  = 3.0
	PriceFloorRatio = 0.8
)

// ExpiredLabel is the terminal countdown text.
const ExpiredLabel = "Expired"

// Decorate stamps every item with expiresAt = now+ttl and snapshots its price.
// All items in one batch share the same decoration instant.
func Decorate(items []GiftItem, now time.Time, ttl time.Duration) []Recommendation {
	out := make([]Recommendation, len(items))
	for i, item := range items {
		out[i] = DecorateItem(item, now, ttl)
	}
	return out
}

// DecorateItem decorates a single item.
func DecorateItem(item GiftItem, now time.Time, ttl time.Duration) Recommendation {
	return Recommendation{
		GiftItem:      item,
		ExpiresAt:     now.Add(ttl).UnixMilli(),
		OriginalPrice: item.Price,
	}
}

// IsExpired reports now > expiresAt. Evaluated on every call, never cached.
func IsExpired(expiresAt int64, now time.Time) bool {
	return now.UnixMilli() > expiresAt
}

// Remaining returns the time left until expiresAt (negative once past).
func Remaining(expiresAt int64, now time.Time) time.Duration {
	return time.Duration(expiresAt-now.UnixMilli()) * time.Millisecond
}

// FormatRemaining renders d as "{h}h {m}m {s}s", each component floored.
// Non-positive durations render as ExpiredLabel.
func FormatRemaining(d time.Duration) string {
	ms := d.Milliseconds()
	if ms <= 0 {
		return ExpiredLabel
	}
	hours := ms / int64(time.Hour/time.Millisecond)
	minutes := (ms % int64(time.Hour/time.Millisecond)) / int64(time.Minute/time.Millisecond)
	seconds := (ms % int64(time.Minute/time.Millisecond)) / int64(time.Second/time.Millisecond)
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// Countdown is FormatRemaining(Remaining(expiresAt, now)).
func Countdown(expiresAt int64, now time.Time) string {
	return FormatRemaining(Remaining(expiresAt, now))
}

// RefreshedPrice applies the refresh rule to original using u, a uniform
// sample from [0, 1). The result lies in
// [max(original-3, 0.8*original), original+3).
func RefreshedPrice(original, u float64) float64 {
	variation := (u - 0.5) * 2 * PriceVariation
	return math.Max(original+variation, original*PriceFloorRatio)
}
