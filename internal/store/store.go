// Package store persists the recipient list and the Memory Box as whole JSON
// arrays under fixed keys. Components go through Store; only the KV
// implementations touch the storage primitive.
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
)

// Fixed storage keys, shared with the original browser client's localStorage.
const (
	RecipientsKey = "giftcuratr-recipients"
	SavedKey      = "giftcuratr-saved"
)

// KV is whole-value key/value storage.
type KV interface {
	// Get returns the value for key; found is false if never written.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Put overwrites every given key atomically.
	Put(ctx context.Context, entries map[string][]byte) error
}

// Snapshot is the full persisted state handed to Update callbacks.
type Snapshot struct {
	Recipients []gift.Recipient
	Saved      []gift.SavedItem
}

// Store serializes read-modify-write cycles over a KV.
type Store struct {
	mu sync.Mutex
	kv KV
}

// New wraps kv.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// View loads the current state and passes it to fn. fn must not retain or
// mutate the slices beyond the call.
func (s *Store) View(ctx context.Context, fn func(Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(snap)
}

// Update loads the current state, lets fn modify it, and persists both lists
// in one write. If fn returns an error nothing is written. A cascade touching
// both lists is therefore atomic.
func (s *Store) Update(ctx context.Context, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&snap); err != nil {
		return err
	}
	return s.persist(ctx, snap)
}

// Recipients returns all recipients in insertion order.
func (s *Store) Recipients(ctx context.Context) ([]gift.Recipient, error) {
	var out []gift.Recipient
	err := s.View(ctx, func(snap Snapshot) error {
		out = snap.Recipients
		return nil
	})
	return out, err
}

// SavedItems returns every Memory Box entry in save order.
func (s *Store) SavedItems(ctx context.Context) ([]gift.SavedItem, error) {
	var out []gift.SavedItem
	err := s.View(ctx, func(snap Snapshot) error {
		out = snap.Saved
		return nil
	})
	return out, err
}

func (s *Store) load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, errors.NewCancelled("load")
	}

	var snap Snapshot
	if err := s.loadList(ctx, RecipientsKey, &snap.Recipients); err != nil {
		return Snapshot{}, err
	}
	if err := s.loadList(ctx, SavedKey, &snap.Saved); err != nil {
		return Snapshot{}, err
	}
	if snap.Recipients == nil {
		snap.Recipients = []gift.Recipient{}
	}
	if snap.Saved == nil {
		snap.Saved = []gift.SavedItem{}
	}
	return snap, nil
}

func (s *Store) loadList(ctx context.Context, key string, dst any) error {
	data, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return storageErr(err)
	}
	if !found || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.NewInternal(fmt.Errorf("decode %s: %w", key, err))
	}
	return nil
}

func (s *Store) persist(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelled("persist")
	}

	recipients, err := json.Marshal(nonNil(snap.Recipients))
	if err != nil {
		return errors.NewInternal(err)
	}
	saved, err := json.Marshal(nonNil(snap.Saved))
	if err != nil {
		return errors.NewInternal(err)
	}

	if err := s.kv.Put(ctx, map[string][]byte{
		RecipientsKey: recipients,
		SavedKey:      saved,
	}); err != nil {
		return storageErr(err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// storageErr keeps structured errors and wraps anything else as unavailable.
func storageErr(err error) error {
	var cErr *errors.CuratrError
	if stderrors.As(err, &cErr) {
		return cErr
	}
	return errors.NewStorageUnavailable(err)
}
