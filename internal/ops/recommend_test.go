package ops

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
)

func TestRecommend_DecoratesWholeCatalog(t *testing.T) {
	env, _ := newTestEnv(t)

	out, err := Recommend(context.Background(), env, RecommendInput{})
	require.NoError(t, err)
	_, err = uuid.Parse(out.SessionID)
	require.NoError(t, err, "session id should be a UUID")
	require.Len(t, out.Items, len(gift.Catalog()))
	require.Equal(t, t0.UnixMilli(), out.DecoratedAt)

	want := t0.Add(23 * time.Hour).UnixMilli()
	for _, item := range out.Items {
		require.Equal(t, want, item.ExpiresAt)
		require.Equal(t, item.Price, item.OriginalPrice)
		require.False(t, item.Expired)
		require.False(t, item.Saved)
		require.Equal(t, "23h 0m 0s", item.TimeRemaining)
	}

	again, err := Recommend(context.Background(), env, RecommendInput{})
	require.NoError(t, err)
	require.NotEqual(t, out.SessionID, again.SessionID)
}

func TestRecommend_FlagsSavedForRecipient(t *testing.T) {
	env, _ := newTestEnv(t)
	mom := mustCreate(t, env, "Mom")
	dad := mustCreate(t, env, "Dad")
	mustSave(t, env, 2, mom, OccasionInput{})
	mustSave(t, env, 5, dad, OccasionInput{})

	out, err := Recommend(context.Background(), env, RecommendInput{RecipientID: mom})
	require.NoError(t, err)
	require.Equal(t, "Mom", out.Recipient)
	for _, item := range out.Items {
		require.Equal(t, item.ID == 2, item.Saved, "item %d", item.ID)
	}
}

func TestRecommend_WithAnswers(t *testing.T) {
	env, _ := newTestEnv(t)
	mom := mustCreate(t, env, "Mom")
	answers := map[int]string{0: "Family member", 1: "Home & cooking", 2: "$50-100"}

	out, err := Recommend(context.Background(), env, RecommendInput{RecipientID: mom, Answers: answers})
	require.NoError(t, err)
	require.Equal(t, answers, out.Answers)

	_, err = Recommend(context.Background(), env, RecommendInput{RecipientID: mom, Answers: map[int]string{0: "Family member"}})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Recommend(context.Background(), env, RecommendInput{RecipientID: "ghost"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCatalog(t *testing.T) {
	out := Catalog()
	require.Len(t, out.Items, 10)
	require.Len(t, out.Questions, 3)
	require.Len(t, out.Occasions, 6)
}
