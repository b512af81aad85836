package playlist

import "sync"

// Queue is the manual play-next list. Strict FIFO, duplicates allowed.
// It is safe for concurrent use. The change hook receives a copy of the new
// contents after every mutation and runs outside the queue's lock.
type Queue struct {
	mu       sync.Mutex
	tracks   []Track
	onChange func([]Track)
}

// NewQueue creates a new empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// OnChange registers the mutation hook.
func (q *Queue) OnChange(fn func([]Track)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = fn
}

// Enqueue appends tracks to the end of the queue.
func (q *Queue) Enqueue(tracks ...Track) {
	if len(tracks) == 0 {
		return
	}
	q.mutate(func() bool {
		q.tracks = append(q.tracks, tracks...)
		return true
	})
}

// EnqueueFront inserts tracks at the head of the queue, keeping their
// order.
func (q *Queue) EnqueueFront(tracks ...Track) {
	if len(tracks) == 0 {
		return
	}
	q.mutate(func() bool {
		q.tracks = append(clone(tracks), q.tracks...)
		return true
	})
}

// DequeueNext removes and returns the track at index 0.
// Returns false if the queue is empty.
func (q *Queue) DequeueNext() (Track, bool) {
	var next Track
	var ok bool
	q.mutate(func() bool {
		if len(q.tracks) == 0 {
			return false
		}
		next, ok = q.tracks[0], true
		q.tracks = append(q.tracks[:0:0], q.tracks[1:]...)
		return true
	})
	return next, ok
}

// RemoveAt removes the track at the given index.
// Returns false if index is out of bounds.
func (q *Queue) RemoveAt(index int) bool {
	removed := false
	q.mutate(func() bool {
		if index < 0 || index >= len(q.tracks) {
			return false
		}
		q.tracks = append(q.tracks[:index:index], q.tracks[index+1:]...)
		removed = true
		return true
	})
	return removed
}

// Clear removes all tracks.
func (q *Queue) Clear() {
	q.mutate(func() bool {
		if len(q.tracks) == 0 {
			return false
		}
		q.tracks = nil
		return true
	})
}

// Replace swaps the whole contents for a snapshot received from the store.
// It does not fire the change hook: the snapshot already is the stored state.
func (q *Queue) Replace(tracks []Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = clone(tracks)
}

// Tracks returns a copy of the queued tracks.
func (q *Queue) Tracks() []Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return clone(q.tracks)
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// mutate runs fn under the lock and fires the hook if fn reports a change.
func (q *Queue) mutate(fn func() bool) {
	q.mu.Lock()
	changed := fn()
	hook := q.onChange
	snapshot := clone(q.tracks)
	q.mu.Unlock()

	if changed && hook != nil {
		hook(snapshot)
	}
}

func clone(tracks []Track) []Track {
	result := make([]Track, len(tracks))
	copy(result, tracks)
	return result
}
