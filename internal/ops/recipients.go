package ops

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
	"github.com/hpungsan/curatr/internal/store"
)

// MaxNameLength bounds recipient names.
const MaxNameLength = 100

// RecipientSummary is a recipient plus its derived gift count.
type RecipientSummary struct {
	gift.Recipient
	GiftCount int `json:"gift_count"`
}

// ListRecipientsOutput contains all recipients in insertion order.
type ListRecipientsOutput struct {
	Recipients []RecipientSummary `json:"recipients"`
	Total      int                `json:"total"`
}

// ListRecipients returns every recipient with its saved-gift count.
func ListRecipients(ctx context.Context, env *Env) (*ListRecipientsOutput, error) {
	out := &ListRecipientsOutput{Recipients: []RecipientSummary{}}
	err := env.Store.View(ctx, func(snap store.Snapshot) error {
		for _, r := range snap.Recipients {
			out.Recipients = append(out.Recipients, RecipientSummary{
				Recipient: r,
				GiftCount: countFor(snap.Saved, r.ID),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Total = len(out.Recipients)
	return out, nil
}

// CreateRecipientInput contains parameters for CreateRecipient.
type CreateRecipientInput struct {
	Name string
}

// CreateRecipient appends a new recipient.
func CreateRecipient(ctx context.Context, env *Env, input CreateRecipientInput) (*gift.Recipient, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	now := env.Now()
	id, err := newID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	r := gift.Recipient{ID: id, Name: name, CreatedAt: now.UnixMilli()}

	err = env.Store.Update(ctx, func(snap *store.Snapshot) error {
		snap.Recipients = append(snap.Recipients, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	env.log().Debug("recipient created", zap.String("id", r.ID))
	return &r, nil
}

// RenameRecipientInput contains parameters for RenameRecipient.
type RenameRecipientInput struct {
	ID   string
	Name string
}

// RenameRecipient updates a recipient's name in place.
func RenameRecipient(ctx context.Context, env *Env, input RenameRecipientInput) (*gift.Recipient, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	var renamed gift.Recipient
	err = env.Store.Update(ctx, func(snap *store.Snapshot) error {
		i, ok := findRecipient(snap.Recipients, id)
		if !ok {
			return errors.NewNotFound("recipient", id)
		}
		snap.Recipients[i].Name = name
		renamed = snap.Recipients[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &renamed, nil
}

// DeleteRecipientInput contains parameters for DeleteRecipient.
type DeleteRecipientInput struct {
	ID string
}

// DeleteRecipientOutput reports what a delete removed.
type DeleteRecipientOutput struct {
	ID           string `json:"id"`
	Deleted      bool   `json:"deleted"`
	RemovedGifts int    `json:"removed_gifts"`
}

// DeleteRecipient removes a recipient and every Memory Box entry saved for
// it. Both lists are written together. Deleting an unknown id succeeds with
// Deleted=false.
func DeleteRecipient(ctx context.Context, env *Env, input DeleteRecipientInput) (*DeleteRecipientOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	out := &DeleteRecipientOutput{ID: id}
	err := env.Store.Update(ctx, func(snap *store.Snapshot) error {
		i, ok := findRecipient(snap.Recipients, id)
		if ok {
			snap.Recipients = append(snap.Recipients[:i], snap.Recipients[i+1:]...)
			out.Deleted = true
		}

		kept := snap.Saved[:0]
		for _, s := range snap.Saved {
			if s.RecipientID == id {
				out.RemovedGifts++
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

	env.Metrics.Removed(out.RemovedGifts)
	if out.Deleted {
		env.Metrics.RecipientDeleted()
		env.log().Info("recipient deleted",
			zap.String("id", id),
			zap.Int("removed_gifts", out.RemovedGifts),
		)
	}
	return out, nil
}

// GiftCountOutput is the number of Memory Box entries for one recipient.
type GiftCountOutput struct {
	RecipientID string `json:"recipient_id"`
	Count       int    `json:"count"`
}

// GiftCount counts the Memory Box entries referencing recipientID. The
// recipient need not exist.
func GiftCount(ctx context.Context, env *Env, recipientID string) (*GiftCountOutput, error) {
	out := &GiftCountOutput{RecipientID: strings.TrimSpace(recipientID)}
	err := env.Store.View(ctx, func(snap store.Snapshot) error {
		out.Count = countFor(snap.Saved, out.RecipientID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.NewInvalidRequest("name must not be empty")
	}
	if len([]rune(name)) > MaxNameLength {
		return "", errors.NewInvalidRequest("name must be at most 100 characters")
	}
	return name, nil
}
