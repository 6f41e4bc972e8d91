package cloud

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readscout/readscout/internal/entities"
)

type fakeProvider struct {
	uid string
}

func (p *fakeProvider) CurrentUserID() string { return p.uid }
func (p *fakeProvider) IsSignedIn() bool      { return p.uid != "" }

// fakeStore keeps records in memory and counts every remote call so tests
// can assert that unauthenticated operations never reach the store.
type fakeStore struct {
	mu       sync.Mutex
	records  map[string]map[string]FavoriteRecord
	failFor  map[string]bool
	attempts []string
	calls    int
	events   chan WatchEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]map[string]FavoriteRecord),
		failFor: make(map[string]bool),
		events:  make(chan WatchEvent, 8),
	}
}

func (s *fakeStore) Upsert(_ context.Context, userID string, record FavoriteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.attempts = append(s.attempts, record.BookID)
	if s.failFor[record.BookID] {
		return fmt.Errorf("remote write rejected")
	}
	if s.records[userID] == nil {
		s.records[userID] = make(map[string]FavoriteRecord)
	}
	s.records[userID][record.BookID] = record
	return nil
}

func (s *fakeStore) List(_ context.Context, userID string) ([]FavoriteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	out := make([]FavoriteRecord, 0, len(s.records[userID]))
	for _, record := range s.records[userID] {
		out = append(out, record)
	}
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, userID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	delete(s.records[userID], bookID)
	return nil
}

func (s *fakeStore) Watch(_ context.Context, _ string) (<-chan WatchEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.events, nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeStore) stored(userID, bookID string) (FavoriteRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[userID][bookID]
	return record, ok
}

func testEntry(bookID string) entities.FavoriteEntry {
	return entities.FavoriteEntry{
		BookID:        bookID,
		Title:         "The Left Hand of Darkness",
		Author:        "Ursula K. Le Guin",
		Rating:        4.2,
		ReadingStatus: entities.ReadingStatusReading,
		CurrentPage:   120,
		TotalPages:    304,
		AddedAt:       time.Now().Add(-time.Hour),
		UpdatedAt:     time.Now(),
	}
}

func TestBridge_PushFavorite(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(&fakeProvider{uid: "user-1"}, store)

	entry := testEntry("lhod")
	require.NoError(t, bridge.PushFavorite(context.Background(), entry))

	record, ok := store.stored("user-1", "lhod")
	require.True(t, ok)
	assert.Equal(t, "The Left Hand of Darkness", record.Title)
	assert.Equal(t, "READING", record.ReadingStatus)
	assert.Equal(t, entry.AddedAt.UnixMilli(), record.AddedTimestamp)
	assert.Greater(t, record.LastUpdated, int64(0))
}

func TestBridge_PushFavorite_NotAuthenticated(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(&fakeProvider{}, store)

	err := bridge.PushFavorite(context.Background(), testEntry("lhod"))

	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, store.callCount(), "no remote call should be made")
}

func TestBridge_PushFavorite_MissingBookID(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(&fakeProvider{uid: "user-1"}, store)

	err := bridge.PushFavorite(context.Background(), entities.FavoriteEntry{Title: "No ID"})

	require.Error(t, err)
	assert.Zero(t, store.callCount())
}

func TestBridge_PullFavoritesOnce_NotAuthenticated(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(&fakeProvider{}, store)

	_, err := bridge.PullFavoritesOnce(context.Background())

	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, store.callCount())
}

func TestBridge_PullFavoritesOnce(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(&fakeProvider{uid: "user-1"}, store)
	require.NoError(t, bridge.PushFavorite(context.Background(), testEntry("lhod")))
	require.NoError(t, bridge.PushFavorite(context.Background(), testEntry("dune")))

	records, err := bridge.PullFavoritesOnce(context.Background())

	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestBridge_RemoveFavoriteRemote(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(&fakeProvider{uid: "user-1"}, store)
	require.NoError(t, bridge.PushFavorite(context.Background(), testEntry("lhod")))

	require.NoError(t, bridge.RemoveFavoriteRemote(context.Background(), "lhod"))

	_, ok := store.stored("user-1", "lhod")
	assert.False(t, ok)
}

func TestBridge_BulkPush_PartialFailure(t *testing.T) {
	store := newFakeStore()
	store.failFor["dune"] = true
	bridge := NewBridge(&fakeProvider{uid: "user-1"}, store)

	entries := []entities.FavoriteEntry{
		testEntry("lhod"),
		testEntry("dune"),
		testEntry("hyperion"),
	}
	pushed, err := bridge.BulkPush(context.Background(), entries)

	require.NoError(t, err)
	assert.Equal(t, 2, pushed)
	assert.Equal(t, []string{"lhod", "dune", "hyperion"}, store.attempts,
		"a failed push must not abort the remaining entries")
}

func TestBridge_BulkPush_NotAuthenticated(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(&fakeProvider{}, store)

	pushed, err := bridge.BulkPush(context.Background(), []entities.FavoriteEntry{testEntry("lhod")})

	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, pushed)
	assert.Zero(t, store.callCount())
}

func TestBridge_ReconcileOnSignIn(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(&fakeProvider{uid: "user-1"}, store)

	// Remote already has a newer copy of "dune" and an old copy of "lhod".
	newer := testEntry("dune")
	record, err := recordFromEntry(newer, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), "user-1", record))

	stale := testEntry("lhod")
	record, err = recordFromEntry(stale, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), "user-1", record))
	staleRemote, _ := store.stored("user-1", "lhod")

	local := []entities.FavoriteEntry{
		testEntry("dune"),     // remote is newer, must be skipped
		testEntry("lhod"),     // local is newer, must be pushed
		testEntry("hyperion"), // absent remotely, must be pushed
	}
	pushed, err := bridge.ReconcileOnSignIn(context.Background(), local)

	require.NoError(t, err)
	assert.Equal(t, 2, pushed)

	duneRemote, ok := store.stored("user-1", "dune")
	require.True(t, ok)
	assert.Greater(t, duneRemote.LastUpdated, time.Now().UnixMilli(),
		"newer remote record must survive reconciliation untouched")

	lhodRemote, ok := store.stored("user-1", "lhod")
	require.True(t, ok)
	assert.Greater(t, lhodRemote.LastUpdated, staleRemote.LastUpdated)

	_, ok = store.stored("user-1", "hyperion")
	assert.True(t, ok)
}

func TestBridge_ReconcileOnSignIn_NotAuthenticated(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(&fakeProvider{}, store)

	pushed, err := bridge.ReconcileOnSignIn(context.Background(), []entities.FavoriteEntry{testEntry("lhod")})

	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, pushed)
	assert.Zero(t, store.callCount())
}

func TestBridge_ObserveFavoritesLive(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(&fakeProvider{uid: "user-1"}, store)
	require.NoError(t, bridge.PushFavorite(context.Background(), testEntry("lhod")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	snapshots, err := bridge.ObserveFavoritesLive(ctx)
	require.NoError(t, err)

	// Initial emission carries the current remote set.
	snap := <-snapshots
	require.NoError(t, snap.Err)
	assert.Len(t, snap.Records, 1)

	// A remote change triggers a fresh snapshot.
	require.NoError(t, bridge.PushFavorite(context.Background(), testEntry("dune")))
	store.events <- WatchEvent{}
	snap = <-snapshots
	require.NoError(t, snap.Err)
	assert.Len(t, snap.Records, 2)

	// A transient fault surfaces in-stream without closing it.
	store.events <- WatchEvent{Err: fmt.Errorf("connection reset")}
	snap = <-snapshots
	require.Error(t, snap.Err)

	store.events <- WatchEvent{}
	snap = <-snapshots
	require.NoError(t, snap.Err)
	assert.Len(t, snap.Records, 2)

	// Cancelling the context closes the stream.
	cancel()
	for {
		if _, open := <-snapshots; !open {
			break
		}
	}
}

func TestBridge_ObserveFavoritesLive_NotAuthenticated(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(&fakeProvider{}, store)

	_, err := bridge.ObserveFavoritesLive(context.Background())

	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, store.callCount())
}
