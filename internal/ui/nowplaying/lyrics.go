package nowplaying

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/drift/internal/lyrics"
	"github.com/llehouerou/drift/internal/playback"
	"github.com/llehouerou/drift/internal/playlist"
	"github.com/llehouerou/drift/internal/ui/render"
	"github.com/llehouerou/drift/internal/ui/styles"
)

// lyricsContext is how many lines show around the current one.
const lyricsContext = 2

type lyricsMsg struct {
	id     playlist.ID
	result lyrics.Result
}

// lyricsPane holds lyrics for one track. Fetches are keyed by track id so
// a late answer for a skipped track is dropped.
type lyricsPane struct {
	visible bool
	trackID playlist.ID
	pending bool
	result  lyrics.Result
}

// fetchLyrics starts a lookup when the pane is shown and the current track
// has no lyrics loaded or in flight.
func (m *Model) fetchLyrics() tea.Cmd {
	if !m.lyrics.visible || m.finder == nil || m.snap.Track == nil {
		return nil
	}
	t := *m.snap.Track
	if m.lyrics.trackID == t.ID {
		return nil
	}
	m.lyrics.trackID = t.ID
	m.lyrics.pending = true
	m.lyrics.result = lyrics.Result{}

	ctx, finder := m.ctx, m.finder
	return func() tea.Msg {
		return lyricsMsg{id: t.ID, result: finder.Fetch(ctx, t)}
	}
}

func (p *lyricsPane) receive(msg lyricsMsg) {
	if msg.id != p.trackID {
		return
	}
	p.pending = false
	p.result = msg.result
}

func (p lyricsPane) view(snap playback.Snapshot, width, height int) string {
	s := styles.T().S()
	var lines []string
	switch {
	case snap.Track == nil:
		lines = []string{s.Muted.Render("No track")}
	case p.pending || p.trackID != snap.Track.ID:
		lines = []string{s.Muted.Render("Looking for lyrics…")}
	case p.result.Err != nil:
		lines = []string{s.Error.Render(render.Truncate(p.result.Err.Error(), width))}
	case !p.result.Found():
		lines = []string{s.Muted.Render("No lyrics found")}
	default:
		lines = lyricsWindow(p.result.Lyrics, snap, width)
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:height], "\n")
}

// lyricsWindow renders the current line with its neighbours. Unsynced
// lyrics scroll in proportion to the playback position.
func lyricsWindow(l *lyrics.Lyrics, snap playback.Snapshot, width int) []string {
	s := styles.T().S()
	current := l.LineAt(snap.Position)
	synced := l.IsSynced()
	if !synced && snap.Duration > 0 {
		current = int(int64(len(l.Lines)) * int64(snap.Position) / int64(snap.Duration))
	}
	current = min(current, len(l.Lines)-1)

	out := make([]string, 0, 2*lyricsContext+1)
	for i := current - lyricsContext; i <= current+lyricsContext; i++ {
		if i < 0 || i >= len(l.Lines) {
			out = append(out, "")
			continue
		}
		text := render.Truncate(render.Sanitize(l.Lines[i].Text), width)
		if i == current && synced {
			out = append(out, s.Title.Render(text))
		} else {
			out = append(out, s.Muted.Render(text))
		}
	}
	return out
}
