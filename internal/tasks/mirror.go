package tasks

import (
	"log"

	"github.com/readscout/readscout/internal/entities"
)

// Mirror adapts the task queue to the ledger's mirror hook. Enqueue
// failures are logged and swallowed: the local write already succeeded and
// must not be rolled back over a queue hiccup.
type Mirror struct {
	client *Client
}

// NewMirror wraps the client for use as a ledger mirror.
func NewMirror(client *Client) *Mirror {
	return &Mirror{client: client}
}

// EnqueuePush schedules a cloud push for one favorite entry.
func (m *Mirror) EnqueuePush(entry entities.FavoriteEntry) {
	if _, err := m.client.Add(PushFavoriteTask{BookID: entry.BookID}).Save(); err != nil {
		log.Printf("[TASK] Failed to enqueue push for %q: %v", entry.BookID, err)
	}
}

// EnqueueRemove schedules a remote record deletion.
func (m *Mirror) EnqueueRemove(bookID string) {
	if _, err := m.client.Add(RemoveFavoriteTask{BookID: bookID}).Save(); err != nil {
		log.Printf("[TASK] Failed to enqueue removal for %q: %v", bookID, err)
	}
}

// EnqueueReconcile schedules a full ledger reconciliation, typically right
// after a sign-in.
func (m *Mirror) EnqueueReconcile() {
	if _, err := m.client.Add(ReconcileTask{}).Save(); err != nil {
		log.Printf("[TASK] Failed to enqueue reconciliation: %v", err)
	}
}
