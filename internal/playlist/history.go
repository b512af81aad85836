package playlist

import "sync"

// DefaultHistorySize is the number of plays kept in History.
const DefaultHistorySize = 50

// History is the most-recent-first list of played tracks. A track identity
// appears at most once; replaying moves it to the front.
type History struct {
	mu       sync.Mutex
	tracks   []Track
	maxSize  int
	onChange func([]Track)
}

// NewHistory creates an empty history holding at most maxSize tracks.
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &History{
		tracks:  make([]Track, 0, maxSize),
		maxSize: maxSize,
	}
}

// OnChange registers the mutation hook. It runs outside the lock with a copy
// of the new contents.
func (h *History) OnChange(fn func([]Track)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

// Record moves track to the front, dropping any older entry with the same
// identity, and trims to the maximum size.
func (h *History) Record(track Track) {
	h.mu.Lock()
	next := make([]Track, 0, min(len(h.tracks)+1, h.maxSize))
	next = append(next, track)
	for _, t := range h.tracks {
		if len(next) == h.maxSize {
			break
		}
		if t.Is(track) {
			continue
		}
		next = append(next, t)
	}
	h.tracks = next
	hook := h.onChange
	snapshot := clone(next)
	h.mu.Unlock()

	if hook != nil {
		hook(snapshot)
	}
}

// Replace swaps the contents for a store snapshot, applying the same
// uniqueness and size rules. The change hook does not fire.
func (h *History) Replace(tracks []Track) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := make([]Track, 0, min(len(tracks), h.maxSize))
	for _, t := range tracks {
		if len(next) == h.maxSize {
			break
		}
		if IndexOf(next, t.ID) >= 0 {
			continue
		}
		next = append(next, t)
	}
	h.tracks = next
}

// Tracks returns a copy, most recent first.
func (h *History) Tracks() []Track {
	h.mu.Lock()
	defer h.mu.Unlock()
	return clone(h.tracks)
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tracks)
}

// Before returns the most recent entry other than the given identity.
func (h *History) Before(id ID) (Track, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range h.tracks {
		if t.ID != id {
			return t, true
		}
	}
	return Track{}, false
}
