package ops

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
	"github.com/hpungsan/curatr/internal/quiz"
	"github.com/hpungsan/curatr/internal/store"
)

// RecommendInput contains parameters for Recommend.
type RecommendInput struct {
	// RecipientID is optional; when set, items already saved for that
	// recipient are flagged.
	RecipientID string
	// Answers is optional; when set it must answer every quiz question.
	Answers map[int]string
}

// RecommendationView is one decorated item as rendered in a session.
type RecommendationView struct {
	gift.Recommendation
	Saved         bool   `json:"saved"`
	Expired       bool   `json:"expired"`
	TimeRemaining string `json:"time_remaining"`
}

// RecommendOutput is one decorated recommendation session.
type RecommendOutput struct {
	SessionID   string               `json:"session_id"`
	RecipientID string               `json:"recipient_id,omitempty"`
	Recipient   string               `json:"recipient,omitempty"`
	DecoratedAt int64                `json:"decorated_at"`
	Answers     map[int]string       `json:"answers,omitempty"`
	Items       []RecommendationView `json:"items"`
}

// Recommend decorates the whole catalog once: every item gets the same
// decoration instant and therefore the same expiry.
func Recommend(ctx context.Context, env *Env, input RecommendInput) (*RecommendOutput, error) {
	recipientID := strings.TrimSpace(input.RecipientID)
	now := env.Now()

	out := &RecommendOutput{
		SessionID:   uuid.NewString(),
		RecipientID: recipientID,
		DecoratedAt: now.UnixMilli(),
	}

	err := env.Store.View(ctx, func(snap store.Snapshot) error {
		var recipient gift.Recipient
		if recipientID != "" {
			i, ok := findRecipient(snap.Recipients, recipientID)
			if !ok {
				return errors.NewNotFound("recipient", recipientID)
			}
			recipient = snap.Recipients[i]
			out.Recipient = recipient.Name
		}

		if len(input.Answers) > 0 {
			res, err := quiz.Complete(gift.Questions(), recipient, input.Answers)
			if err != nil {
				return err
			}
			out.Answers = res.Answers
		}

		saved := make(map[int]bool)
		for _, s := range snap.Saved {
			if recipientID != "" && s.RecipientID == recipientID {
				saved[s.ID] = true
			}
		}

		for _, rec := range gift.Decorate(gift.Catalog(), now, env.ttl()) {
			out.Items = append(out.Items, newRecommendationView(rec, saved[rec.ID], now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	env.Metrics.RecommendationSession()
	env.log().Debug("recommendation session",
		zap.String("session_id", out.SessionID),
		zap.String("recipient_id", recipientID),
		zap.Int("items", len(out.Items)),
	)
	return out, nil
}

func newRecommendationView(rec gift.Recommendation, saved bool, now time.Time) RecommendationView {
	return RecommendationView{
		Recommendation: rec,
		Saved:          saved,
		Expired:        gift.IsExpired(rec.ExpiresAt, now),
		TimeRemaining:  gift.Countdown(rec.ExpiresAt, now),
	}
}

// CatalogOutput lists the raw catalog.
type CatalogOutput struct {
	Items     []gift.GiftItem     `json:"items"`
	Questions []gift.Question     `json:"questions"`
	Occasions []gift.OccasionKind `json:"occasions"`
}

// Catalog returns the fixed catalog, quiz questions and occasion kinds.
func Catalog() *CatalogOutput {
	return &CatalogOutput{
		Items:     gift.Catalog(),
		Questions: gift.Questions(),
		Occasions: gift.OccasionKinds(),
	}
}
