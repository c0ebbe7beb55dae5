package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hpungsan/curatr/internal/db"
	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
)

func TestStore_EmptyState(t *testing.T) {
	s := New(NewMemory())
	ctx := context.Background()

	recipients, err := s.Recipients(ctx)
	if err != nil {
		t.Fatalf("Recipients() error = %v", err)
	}
	if recipients == nil || len(recipients) != 0 {
		t.Errorf("Recipients() = %#v, want empty non-nil slice", recipients)
	}

	saved, err := s.SavedItems(ctx)
	if err != nil {
		t.Fatalf("SavedItems() error = %v", err)
	}
	if saved == nil || len(saved) != 0 {
		t.Errorf("SavedItems() = %#v, want empty non-nil slice", saved)
	}
}

func TestStore_UpdatePersistsBothKeys(t *testing.T) {
	kv := NewMemory()
	s := New(kv)
	ctx := context.Background()

	mom := gift.Recipient{ID: "01HZX", Name: "Mom", CreatedAt: 1700000000000}
	item := gift.SavedItem{
		Recommendation: gift.Recommendation{
			GiftItem:      gift.GiftItem{ID: 3, Title: "Scarf", Price: 40},
			ExpiresAt:     1700082800000,
			OriginalPrice: 40,
		},
		RecipientID: mom.ID,
		Occasion:    gift.Occasion{Type: gift.OccasionBirthday, Label: "Birthday", Color: "pink"},
		SavedAt:     1700000001000,
	}

	err := s.Update(ctx, func(snap *Snapshot) error {
		snap.Recipients = append(snap.Recipients, mom)
		snap.Saved = append(snap.Saved, item)
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	raw, ok, _ := kv.Get(ctx, RecipientsKey)
	if !ok {
		t.Fatalf("%s not written", RecipientsKey)
	}
	var decoded []gift.Recipient
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("stored recipients not a JSON array: %v", err)
	}
	if diff := cmp.Diff([]gift.Recipient{mom}, decoded); diff != "" {
		t.Errorf("stored recipients mismatch (-want +got):\n%s", diff)
	}

	saved, err := s.SavedItems(ctx)
	if err != nil {
		t.Fatalf("SavedItems() error = %v", err)
	}
	if diff := cmp.Diff([]gift.SavedItem{item}, saved); diff != "" {
		t.Errorf("saved mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_UpdateErrorWritesNothing(t *testing.T) {
	kv := NewMemory()
	s := New(kv)
	ctx := context.Background()

	wantErr := errors.NewInvalidRequest("nope")
	err := s.Update(ctx, func(snap *Snapshot) error {
		snap.Recipients = append(snap.Recipients, gift.Recipient{ID: "x", Name: "X"})
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("Update() error = %v, want %v", err, wantErr)
	}

	if _, ok, _ := kv.Get(ctx, RecipientsKey); ok {
		t.Error("recipients key written despite callback error")
	}
}

func TestStore_StorageFailure(t *testing.T) {
	kv := NewMemory()
	kv.FailWith = fmt.Errorf("disk full")
	s := New(kv)

	_, err := s.Recipients(context.Background())
	if !errors.Is(err, errors.ErrStorageUnavailable) {
		t.Errorf("Recipients() error = %v, want STORAGE_UNAVAILABLE", err)
	}

	err = s.Update(context.Background(), func(*Snapshot) error { return nil })
	if !errors.Is(err, errors.ErrStorageUnavailable) {
		t.Errorf("Update() error = %v, want STORAGE_UNAVAILABLE", err)
	}
}

func TestStore_CorruptValue(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()
	_ = kv.Put(ctx, map[string][]byte{SavedKey: []byte("{not json")})

	_, err := New(kv).SavedItems(ctx)
	if !errors.Is(err, errors.ErrInternal) {
		t.Errorf("SavedItems() error = %v, want INTERNAL", err)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(NewMemory()).Recipients(ctx)
	if !errors.Is(err, errors.ErrCancelled) {
		t.Errorf("Recipients() error = %v, want CANCELLED", err)
	}
}

func TestStore_ConcurrentUpdatesSerialize(t *testing.T) {
	s := New(NewMemory())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Update(ctx, func(snap *Snapshot) error {
				snap.Recipients = append(snap.Recipients, gift.Recipient{ID: fmt.Sprint(i), Name: "n"})
				return nil
			})
		}(i)
	}
	wg.Wait()

	recipients, _ := s.Recipients(ctx)
	if len(recipients) != 20 {
		t.Errorf("len(recipients) = %d, want 20 (lost update)", len(recipients))
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	defer database.Close()

	s := New(NewSQLite(database))
	ctx := context.Background()

	err = s.Update(ctx, func(snap *Snapshot) error {
		snap.Recipients = append(snap.Recipients, gift.Recipient{ID: "a", Name: "Dad", CreatedAt: 5})
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// A fresh Store over the same database sees the write.
	recipients, err := New(NewSQLite(database)).Recipients(ctx)
	if err != nil {
		t.Fatalf("Recipients() error = %v", err)
	}
	if len(recipients) != 1 || recipients[0].Name != "Dad" {
		t.Errorf("Recipients() = %+v", recipients)
	}

	raw, ok, err := db.GetEntry(ctx, database, SavedKey)
	if err != nil || !ok || string(raw) != "[]" {
		t.Errorf("saved key = %q, %v, %v; want []", raw, ok, err)
	}
}
