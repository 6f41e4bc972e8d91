package cloud

import "context"

// WatchEvent signals a change in the user's remote collection. A non-nil
// Err reports a transient subscription fault; the stream stays open.
type WatchEvent struct {
	Err error
}

// RemoteStore is the per-user remote favorites collection the bridge
// mirrors into. Implementations are expected to be safe for concurrent use.
type RemoteStore interface {
	// Upsert writes the record under the given user, replacing any record
	// with the same bookId.
	Upsert(ctx context.Context, userID string, record FavoriteRecord) error
	// List returns all records stored for the user.
	List(ctx context.Context, userID string) ([]FavoriteRecord, error)
	// Delete removes the user's record for the given book. Deleting an
	// absent record is not an error.
	Delete(ctx context.Context, userID, bookID string) error
	// Watch emits an event whenever the user's records change. The
	// returned channel closes when ctx is cancelled.
	Watch(ctx context.Context, userID string) (<-chan WatchEvent, error)
}
