package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/curatr/internal/db"
	"github.com/hpungsan/curatr/internal/metrics"
	"github.com/hpungsan/curatr/internal/store"
)

// TestFullWorkflow runs the Memory Box lifecycle against SQLite:
// create → save → upcoming → delete (cascade) → upcoming (empty)
func TestFullWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	require.NoError(t, err)
	defer database.Close()

	env, _ := newTestEnv(t)
	env.Store = store.New(store.NewSQLite(database))
	env.Metrics = metrics.New()
	ctx := context.Background()

	// 1. Create recipient
	mom, err := CreateRecipient(ctx, env, CreateRecipientInput{Name: "Mom"})
	require.NoError(t, err)

	// 2. Save item 1 for Mom with a future birthday
	_, err = SaveItem(ctx, env, SaveItemInput{
		ItemID:      1,
		RecipientID: mom.ID,
		Occasion:    OccasionInput{Type: "birthday", Date: "2026-11-30"},
	})
	require.NoError(t, err)

	// 3. Exactly one upcoming occasion, labeled Birthday, for Mom
	up, err := UpcomingOccasions(ctx, env, 0)
	require.NoError(t, err)
	require.Len(t, up.Occasions, 1)
	require.Equal(t, "Birthday", up.Occasions[0].Label)
	require.Equal(t, "Mom", up.Occasions[0].RecipientName)

	// 4. State survives a fresh store over the same database
	reopened := *env
	reopened.Store = store.New(store.NewSQLite(database))
	list, err := ListSaved(ctx, &reopened, ListSavedInput{RecipientID: mom.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	// 5. Delete Mom: her saved items go with her
	del, err := DeleteRecipient(ctx, env, DeleteRecipientInput{ID: mom.ID})
	require.NoError(t, err)
	require.True(t, del.Deleted)
	require.Equal(t, 1, del.RemovedGifts)

	count, err := GiftCount(ctx, env, mom.ID)
	require.NoError(t, err)
	require.Zero(t, count.Count)

	up, err = UpcomingOccasions(ctx, env, 0)
	require.NoError(t, err)
	require.Empty(t, up.Occasions)

	// Both keys were rewritten by the cascade.
	raw, ok, err := db.GetEntry(ctx, database, store.SavedKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "[]", string(raw))
	raw, _, _ = db.GetEntry(ctx, database, store.RecipientsKey)
	require.Equal(t, "[]", string(raw))
}
