// Package watch implements an in-process broadcast primitive for reactive
// store observation. Each subscriber owns a buffered channel of snapshots;
// publishing replaces an undelivered snapshot rather than blocking, so a slow
// subscriber always sees the latest state (latest-wins).
package watch

import (
	"sync"
)

// Watcher broadcasts state snapshots to registered subscribers.
type Watcher[T any] struct {
	mu   sync.Mutex
	subs map[uint64]chan T
	next uint64
}

// NewWatcher creates an empty watcher.
func NewWatcher[T any]() *Watcher[T] {
	return &Watcher[T]{subs: make(map[uint64]chan T)}
}

// Subscribe registers a subscriber and delivers initial as the first element.
// The returned cancel function detaches the subscriber and closes its
// channel; no elements are delivered after cancel returns.
func (w *Watcher[T]) Subscribe(initial T) (<-chan T, func()) {
	ch := make(chan T, 1)
	ch <- initial

	w.mu.Lock()
	id := w.next
	w.next++
	w.subs[id] = ch
	w.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs, id)
			close(ch)
			w.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber. An undelivered previous
// snapshot is dropped in favor of the new one.
func (w *Watcher[T]) Publish(snapshot T) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.subs {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale snapshot, then deliver the new one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (w *Watcher[T]) SubscriberCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}
