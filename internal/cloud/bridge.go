package cloud

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/readscout/readscout/internal/auth"
	"github.com/readscout/readscout/internal/entities"
)

// ErrNotAuthenticated is returned by every bridge operation when no user is
// signed in. The check runs before any remote call is attempted.
var ErrNotAuthenticated = errors.New("no user signed in")

// Snapshot is one emission from a live observation: either the full set of
// remote records or a transient error. An error emission does not end the
// stream.
type Snapshot struct {
	Records []FavoriteRecord
	Err     error
}

// Bridge mirrors the favorites ledger into a per-user remote store. All
// writes here are best-effort from the caller's point of view: the local
// ledger is already committed before the bridge is involved.
type Bridge struct {
	auth  auth.Provider
	store RemoteStore
}

func NewBridge(provider auth.Provider, store RemoteStore) *Bridge {
	return &Bridge{auth: provider, store: store}
}

// userID resolves the signed-in user, re-read on every call so a sign-out
// between operations takes effect immediately.
func (b *Bridge) userID() (string, error) {
	uid := b.auth.CurrentUserID()
	if uid == "" {
		return "", ErrNotAuthenticated
	}
	return uid, nil
}

// PushFavorite mirrors a single ledger entry to the remote store.
func (b *Bridge) PushFavorite(ctx context.Context, entry entities.FavoriteEntry) error {
	uid, err := b.userID()
	if err != nil {
		return err
	}
	record, err := recordFromEntry(entry, time.Now())
	if err != nil {
		return fmt.Errorf("push favorite: %w", err)
	}
	if err := b.store.Upsert(ctx, uid, record); err != nil {
		return fmt.Errorf("push favorite %q: %w", entry.BookID, err)
	}
	return nil
}

// RemoveFavoriteRemote deletes the signed-in user's remote record for the
// given book.
func (b *Bridge) RemoveFavoriteRemote(ctx context.Context, bookID string) error {
	uid, err := b.userID()
	if err != nil {
		return err
	}
	if err := b.store.Delete(ctx, uid, bookID); err != nil {
		return fmt.Errorf("remove remote favorite %q: %w", bookID, err)
	}
	return nil
}

// PullFavoritesOnce fetches the signed-in user's full remote set.
func (b *Bridge) PullFavoritesOnce(ctx context.Context) ([]FavoriteRecord, error) {
	uid, err := b.userID()
	if err != nil {
		return nil, err
	}
	records, err := b.store.List(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("pull favorites: %w", err)
	}
	return records, nil
}

// BulkPush mirrors every entry independently and returns how many
// succeeded. A failed entry is logged and skipped; it never aborts the
// remaining pushes.
func (b *Bridge) BulkPush(ctx context.Context, entries []entities.FavoriteEntry) (int, error) {
	uid, err := b.userID()
	if err != nil {
		return 0, err
	}
	now := time.Now()
	pushed := 0
	for _, entry := range entries {
		record, err := recordFromEntry(entry, now)
		if err != nil {
			log.Printf("[Cloud] Skipping bulk push entry: %v", err)
			continue
		}
		if err := b.store.Upsert(ctx, uid, record); err != nil {
			log.Printf("[Cloud] Bulk push failed for %q: %v", entry.BookID, err)
			continue
		}
		pushed++
	}
	return pushed, nil
}

// ObserveFavoritesLive subscribes to the signed-in user's remote set. The
// stream emits the current set immediately, then a fresh snapshot on every
// remote change. Transient faults arrive as Snapshot.Err without closing
// the stream; cancelling ctx detaches and closes the channel.
func (b *Bridge) ObserveFavoritesLive(ctx context.Context) (<-chan Snapshot, error) {
	uid, err := b.userID()
	if err != nil {
		return nil, err
	}
	events, err := b.store.Watch(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("observe favorites: %w", err)
	}

	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		emit := func(snap Snapshot) bool {
			select {
			case out <- snap:
				return true
			case <-ctx.Done():
				return false
			}
		}
		load := func() bool {
			records, err := b.store.List(ctx, uid)
			if err != nil {
				return emit(Snapshot{Err: fmt.Errorf("observe favorites: %w", err)})
			}
			return emit(Snapshot{Records: records})
		}
		if !load() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Err != nil {
					if !emit(Snapshot{Err: ev.Err}) {
						return
					}
					continue
				}
				if !load() {
					return
				}
			}
		}
	}()
	return out, nil
}

// ReconcileOnSignIn merges the local ledger into the remote set after a
// sign-in. A local entry is pushed when the remote side has no record for
// it, or when the local copy was updated at or after the remote lastUpdated
// stamp. Stale local copies never overwrite newer remote records. Returns
// how many entries were pushed.
func (b *Bridge) ReconcileOnSignIn(ctx context.Context, entries []entities.FavoriteEntry) (int, error) {
	uid, err := b.userID()
	if err != nil {
		return 0, err
	}
	remote, err := b.store.List(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("reconcile: %w", err)
	}
	byBook := make(map[string]FavoriteRecord, len(remote))
	for _, record := range remote {
		byBook[record.BookID] = record
	}

	now := time.Now()
	pushed := 0
	for _, entry := range entries {
		if existing, ok := byBook[entry.BookID]; ok {
			localStamp := entry.UpdatedAt
			if entry.AddedAt.After(localStamp) {
				localStamp = entry.AddedAt
			}
			if localStamp.UnixMilli() < existing.LastUpdated {
				continue
			}
		}
		record, err := recordFromEntry(entry, now)
		if err != nil {
			log.Printf("[Cloud] Skipping reconcile entry: %v", err)
			continue
		}
		if err := b.store.Upsert(ctx, uid, record); err != nil {
			log.Printf("[Cloud] Reconcile push failed for %q: %v", entry.BookID, err)
			continue
		}
		pushed++
	}
	return pushed, nil
}
