package playlist

// Playlist is a named, ordered collection of tracks. Position is play order
// and a track identity appears at most once.
type Playlist struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Cover       string  `json:"cover,omitempty"`
	Tracks      []Track `json:"tracks"`
}

// Add appends tracks whose identity is not already present.
// Returns the number of tracks actually added.
func (p *Playlist) Add(tracks ...Track) int {
	added := 0
	for _, t := range tracks {
		if p.Contains(t.ID) {
			continue
		}
		p.Tracks = append(p.Tracks, t)
		added++
	}
	return added
}

// Remove removes the track with the given identity.
// Returns false if it was not present.
func (p *Playlist) Remove(id ID) bool {
	i := IndexOf(p.Tracks, id)
	if i < 0 {
		return false
	}
	p.Tracks = append(p.Tracks[:i:i], p.Tracks[i+1:]...)
	return true
}

// Contains reports whether a track with the given identity is in the playlist.
func (p *Playlist) Contains(id ID) bool {
	return IndexOf(p.Tracks, id) >= 0
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.Tracks)
}

// Move moves the track at fromIndex to toIndex.
// Returns false if either index is out of bounds.
func (p *Playlist) Move(fromIndex, toIndex int) bool {
	if fromIndex < 0 || fromIndex >= len(p.Tracks) {
		return false
	}
	if toIndex < 0 || toIndex >= len(p.Tracks) {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	track := p.Tracks[fromIndex]
	p.Tracks = append(p.Tracks[:fromIndex], p.Tracks[fromIndex+1:]...)
	p.Tracks = append(p.Tracks[:toIndex], append([]Track{track}, p.Tracks[toIndex:]...)...)
	return true
}

// Clone returns a deep copy of the playlist.
func (p Playlist) Clone() Playlist {
	c := p
	c.Tracks = make([]Track, len(p.Tracks))
	copy(c.Tracks, p.Tracks)
	return c
}
