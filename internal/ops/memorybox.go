package ops

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
	"github.com/hpungsan/curatr/internal/store"
)

// DefaultUpcomingLimit is the number of upcoming occasions shown.
const DefaultUpcomingLimit = 3

// OccasionInput is the raw occasion form.
type OccasionInput struct {
	Type        string
	CustomLabel string
	Date        string
	Notes       string
}

// SaveItemInput contains parameters for SaveItem.
type SaveItemInput struct {
	ItemID      int
	RecipientID string
	Occasion    OccasionInput
	// ExpiresAt is the expiry shown in the session the item was saved from
	// (unix ms). Zero decorates the item at save time.
	ExpiresAt int64
}

// SavedView is a Memory Box entry with its derived display state.
type SavedView struct {
	gift.SavedItem
	RecipientName string `json:"recipient_name"`
	Expired       bool   `json:"expired"`
	TimeRemaining string `json:"time_remaining"`
}

func newSavedView(s gift.SavedItem, recipients []gift.Recipient, now time.Time) SavedView {
	return SavedView{
		SavedItem:     s,
		RecipientName: recipientName(recipients, s.RecipientID),
		Expired:       s.Expired(now),
		TimeRemaining: gift.Countdown(s.ExpiresAt, now),
	}
}

// SaveItem adds a catalog item to the Memory Box for a recipient.
func SaveItem(ctx context.Context, env *Env, input SaveItemInput) (*SavedView, error) {
	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return nil, errors.NewInvalidRequest("recipient_id is required")
	}
	item, ok := gift.CatalogItem(input.ItemID)
	if !ok {
		return nil, errors.NewNotFound("item", fmt.Sprint(input.ItemID))
	}

	now := env.Now()
	if err := gift.ValidateOccasionDate(input.Occasion.Date, now); err != nil {
		return nil, err
	}
	occ, err := gift.BuildOccasion(gift.OccasionType(input.Occasion.Type),
		input.Occasion.CustomLabel, input.Occasion.Date, input.Occasion.Notes)
	if err != nil {
		return nil, err
	}

	rec := gift.DecorateItem(item, now, env.ttl())
	if input.ExpiresAt != 0 {
		if input.ExpiresAt < 0 || input.ExpiresAt > rec.ExpiresAt {
			return nil, errors.NewInvalidRequest("expires_at must be positive and within the price window")
		}
		rec.ExpiresAt = input.ExpiresAt
	}

	saved := gift.SavedItem{
		Recommendation: rec,
		RecipientID:    recipientID,
		Occasion:       occ,
		SavedAt:        now.UnixMilli(),
	}

	var view SavedView
	err = env.Store.Update(ctx, func(snap *store.Snapshot) error {
		if _, ok := findRecipient(snap.Recipients, recipientID); !ok {
			return errors.NewNotFound("recipient", recipientID)
		}
		if !env.cfg().AllowDuplicateSaves {
			for _, s := range snap.Saved {
				if s.ID == item.ID && s.RecipientID == recipientID {
					return errors.NewAlreadySaved(item.ID, recipientID)
				}
			}
		}
		snap.Saved = append(snap.Saved, saved)
		view = newSavedView(saved, snap.Recipients, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	env.Metrics.Saved()
	env.log().Info("item saved",
		zap.Int("item_id", item.ID),
		zap.String("recipient_id", recipientID),
		zap.String("occasion", string(occ.Type)),
	)
	return &view, nil
}

// RemoveItemInput contains parameters for RemoveItem.
type RemoveItemInput struct {
	ItemID int
	// RecipientID narrows removal to one recipient; empty or "all" removes
	// the item for everyone.
	RecipientID string
}

// RemoveItemOutput reports how many entries were removed.
type RemoveItemOutput struct {
	ItemID  int `json:"item_id"`
	Removed int `json:"removed"`
}

// RemoveItem deletes every Memory Box entry matching the item id. Removing
// nothing is not an error.
func RemoveItem(ctx context.Context, env *Env, input RemoveItemInput) (*RemoveItemOutput, error) {
	recipientID := normalizeRecipientFilter(input.RecipientID)
	out := &RemoveItemOutput{ItemID: input.ItemID}

	err := env.Store.Update(ctx, func(snap *store.Snapshot) error {
		kept := snap.Saved[:0]
		for _, s := range snap.Saved {
			if matchesItem(s, input.ItemID, recipientID) {
				out.Removed++
				continue
			}
			kept = append(kept, s)
		}
		snap.Saved = kept
		return nil
	})
	if err != nil {
		return nil, err
	}

	env.Metrics.Removed(out.Removed)
	return out, nil
}

// RefreshPriceInput contains parameters for RefreshPrice.
type RefreshPriceInput struct {
	ItemID      int
	RecipientID string
}

// RefreshPriceOutput lists the refreshed entries.
type RefreshPriceOutput struct {
	Items []SavedView `json:"items"`
}

// RefreshPrice requotes every matching entry from its original price.
// Refreshing nothing is not an error, as with RemoveItem.
// OriginalPrice never changes; ExpiresAt changes only when configured to
// reset on refresh.
func RefreshPrice(ctx context.Context, env *Env, input RefreshPriceInput) (*RefreshPriceOutput, error) {
	recipientID := normalizeRecipientFilter(input.RecipientID)
	resetExpiry := env.cfg().ResetExpiryOnRefresh
	now := env.Now()
	prices := env.prices()

	out := &RefreshPriceOutput{Items: []SavedView{}}
	err := env.Store.Update(ctx, func(snap *store.Snapshot) error {
		for i := range snap.Saved {
			s := &snap.Saved[i]
			if !matchesItem(*s, input.ItemID, recipientID) {
				continue
			}
			price, err := prices.CurrentPrice(ctx, s.Recommendation)
			if err != nil {
				return err
			}
			s.Price = price
			if resetExpiry {
				s.ExpiresAt = now.Add(env.ttl()).UnixMilli()
			}
			out.Items = append(out.Items, newSavedView(*s, snap.Recipients, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	env.Metrics.Refreshed(len(out.Items))
	for _, v := range out.Items {
		env.log().Info("price refreshed",
			zap.Int("item_id", v.ID),
			zap.String("recipient_id", v.RecipientID),
			zap.Float64("original_price", v.OriginalPrice),
			zap.Float64("price", v.Price),
		)
	}
	return out, nil
}

func matchesItem(s gift.SavedItem, itemID int, recipientID string) bool {
	if s.ID != itemID {
		return false
	}
	return recipientID == "" || s.RecipientID == recipientID
}

// ListSavedInput contains parameters for ListSaved.
type ListSavedInput struct {
	RecipientID string
	Status      string
}

// ListSavedOutput is a filtered Memory Box view.
type ListSavedOutput struct {
	Items  []SavedView `json:"items"`
	Total  int         `json:"total"`
	Status gift.Status `json:"status"`
}

// ListSaved filters the Memory Box by recipient and expiry status. Expiry is
// evaluated at call time.
func ListSaved(ctx context.Context, env *Env, input ListSavedInput) (*ListSavedOutput, error) {
	status, err := gift.ParseStatus(input.Status)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	recipientID := normalizeRecipientFilter(input.RecipientID)
	now := env.Now()

	out := &ListSavedOutput{Items: []SavedView{}, Status: status}
	err = env.Store.View(ctx, func(snap store.Snapshot) error {
		for _, s := range snap.Saved {
			if recipientID != "" && s.RecipientID != recipientID {
				continue
			}
			if !status.Matches(s.Expired(now)) {
				continue
			}
			out.Items = append(out.Items, newSavedView(s, snap.Recipients, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Total = len(out.Items)
	return out, nil
}

// UpcomingOccasion is one dated occasion in the future.
type UpcomingOccasion struct {
	ItemID        int    `json:"item_id"`
	Title         string `json:"title"`
	Label         string `json:"label"`
	Color         string `json:"color"`
	Date          string `json:"date"`
	RecipientID   string `json:"recipient_id"`
	RecipientName string `json:"recipient_name"`
}

// UpcomingOccasionsOutput lists the nearest upcoming occasions.
type UpcomingOccasionsOutput struct {
	Occasions []UpcomingOccasion `json:"occasions"`
}

// UpcomingOccasions returns saved items whose occasion date falls after now,
// nearest first, truncated to limit (config upcoming_limit when limit <= 0).
// Dates are midnight UTC.
func UpcomingOccasions(ctx context.Context, env *Env, limit int) (*UpcomingOccasionsOutput, error) {
	if limit <= 0 {
		limit = env.cfg().UpcomingLimit
	}
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	now := env.Now()

	type dated struct {
		at  time.Time
		occ UpcomingOccasion
	}
	var all []dated

	err := env.Store.View(ctx, func(snap store.Snapshot) error {
		for _, s := range snap.Saved {
			at, ok := gift.ParseOccasionDate(s.Occasion.Date)
			if !ok || !at.After(now) {
				continue
			}
			all = append(all, dated{at: at, occ: UpcomingOccasion{
				ItemID:        s.ID,
				Title:         s.Title,
				Label:         s.Occasion.Label,
				Color:         s.Occasion.Color,
				Date:          s.Occasion.Date,
				RecipientID:   s.RecipientID,
				RecipientName: recipientName(snap.Recipients, s.RecipientID),
			}})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })
	if len(all) > limit {
		all = all[:limit]
	}

	out := &UpcomingOccasionsOutput{Occasions: make([]UpcomingOccasion, 0, len(all))}
	for _, d := range all {
		out.Occasions = append(out.Occasions, d.occ)
	}
	return out, nil
}

// BuyInput contains parameters for Buy.
type BuyInput struct {
	ItemID int
}

// BuyOutput is the purchase link for an item.
type BuyOutput struct {
	ItemID int    `json:"item_id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// Buy builds the affiliate link for a catalog item. Nothing is purchased.
func Buy(ctx context.Context, env *Env, input BuyInput) (*BuyOutput, error) {
	item, ok := gift.CatalogItem(input.ItemID)
	if !ok {
		return nil, errors.NewNotFound("item", fmt.Sprint(input.ItemID))
	}
	link, err := env.buyer().Buy(ctx, item)
	if err != nil {
		return nil, err
	}
	return &BuyOutput{ItemID: item.ID, Title: item.Title, URL: link}, nil
}
