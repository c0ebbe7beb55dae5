// Package gift holds the curatr domain types and the pure rules around them:
// catalog decoration, expiry, price refresh, and occasion tagging.
//
// JSON field names match the records the original browser client kept in
// localStorage, so exported data from either side decodes into these types.
package gift

import (
	"fmt"
	"strings"
	"time"
)

// GiftItem is an immutable catalog entry.
type GiftItem struct {
	ID          int     `json:"id"`
	ASIN        string  `json:"asin"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

// Recommendation is a catalog item decorated for one recommendation session.
// OriginalPrice never changes after decoration; Price may be refreshed.
type Recommendation struct {
	GiftItem
	// ExpiresAt is the unix-millisecond instant the quoted price lapses
	ExpiresAt int64 `json:"expiresAt"`
	// OriginalPrice is the catalog price captured at decoration time
	OriginalPrice float64 `json:"originalPrice"`
}

// Recipient is a named person gifts may be saved for.
type Recipient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

// SavedItem is one Memory Box entry.
type SavedItem struct {
	Recommendation
	RecipientID string   `json:"recipientId"`
	Occasion    Occasion `json:"occasion"`
	SavedAt     int64    `json:"savedAt"`
}

// Expired reports whether the entry's price window has lapsed at now.
func (s SavedItem) Expired(now time.Time) bool {
	return IsExpired(s.ExpiresAt, now)
}

// Status filters Memory Box views by expiry.
type Status string

const (
	StatusAll      Status = "all"
	StatusUpcoming Status = "upcoming" // not expired
	StatusExpired  Status = "expired"
)

// ParseStatus accepts all, upcoming, expired (case-insensitive); empty means all.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusUpcoming:
		return StatusUpcoming, nil
	case StatusExpired:
		return StatusExpired, nil
	}
	return "", fmt.Errorf("status must be one of: all, upcoming, expired")
}

// Matches reports whether an item with the given expiry state passes the filter.
func (st Status) Matches(expired bool) bool {
	switch st {
	case StatusUpcoming:
		return !expired
	case StatusExpired:
		return expired
	default:
		return true
	}
}
