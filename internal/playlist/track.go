package playlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID identifies a track or playlist. The user store holds both numeric and
// string identifiers, so ID decodes from either JSON form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("track id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Track is a playable item. Tracks are values: copy them freely, compare
// them with Is, never by ==.
type Track struct {
	ID     ID
	Title  string
	Artist string
	Source string // media URL, local path or streaming video id
	Cover  string
	// Duration is the nominal length. Zero means unknown; the backend
	// reports the real value once loaded.
	Duration time.Duration
}

// Is reports whether both tracks share the same identity.
func (t Track) Is(other Track) bool {
	return t.ID == other.ID
}

// Seed returns the "{artist} - {title}" form used for suggestions and
// search. An unknown artist leaves the prefix empty.
func (t Track) Seed() string {
	return t.Artist + " - " + t.Title
}

// wireTrack is the document-store shape of a Track.
type wireTrack struct {
	ID       ID      `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	URL      string  `json:"url"`
	Cover    string  `json:"cover"`
	Duration float64 `json:"duration"` // seconds
}

// MarshalJSON encodes the track with its duration in seconds.
func (t Track) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTrack{
		ID:       t.ID,
		Title:    t.Title,
		Artist:   t.Artist,
		URL:      t.Source,
		Cover:    t.Cover,
		Duration: t.Duration.Seconds(),
	})
}

// UnmarshalJSON decodes the document-store shape.
func (t *Track) UnmarshalJSON(data []byte) error {
	var w wireTrack
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Track{
		ID:       w.ID,
		Title:    w.Title,
		Artist:   w.Artist,
		Source:   w.URL,
		Cover:    w.Cover,
		Duration: time.Duration(w.Duration * float64(time.Second)),
	}
	return nil
}

// IndexOf returns the index of the first track with the given identity, or -1.
func IndexOf(tracks []Track, id ID) int {
	for i := range tracks {
		if tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// FormatDuration formats a duration as MM:SS, or H:MM:SS past the hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return strconv.Itoa(h) + ":" + pad(m) + ":" + pad(s)
	}
	return pad(m) + ":" + pad(s)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
