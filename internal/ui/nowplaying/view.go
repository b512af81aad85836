package nowplaying

import (
	"fmt"
	"strings"

	"github.com/llehouerou/drift/internal/playback"
	"github.com/llehouerou/drift/internal/player"
	"github.com/llehouerou/drift/internal/playlist"
	"github.com/llehouerou/drift/internal/ui/render"
	"github.com/llehouerou/drift/internal/ui/styles"
)

const (
	spectrumHeight = 8
	maxUpNext      = 5
	minWidth       = 20
)

func (m Model) View() string {
	s := styles.T().S()
	inner := max(m.width-4, minWidth)

	sections := []string{
		m.headerView(inner),
		"",
		m.spectrumView(inner),
		"",
		progressBar(m.snap.Position, m.snap.Duration, inner, m.snap.State == playback.StatePlaying),
		render.Row(s.Muted.Render(volumeBar(m.snap.Volume)), s.Subtle.Render(stateLabel(m.snap)), inner),
	}
	if q := m.queueView(inner); q != "" {
		sections = append(sections, "", q)
	}
	if m.status != "" {
		style := s.Success
		if m.isError {
			style = s.Error
		}
		sections = append(sections, "", style.Render(render.Truncate(m.status, inner)))
	}
	sections = append(sections, "", m.help.View(m.keys))

	return s.Panel.Width(inner + 2).Render(strings.Join(sections, "\n"))
}

func (m Model) headerView(width int) string {
	s := styles.T().S()
	t := m.snap.Track
	if t == nil {
		return s.Muted.Render("Nothing playing") + "\n" + s.Subtle.Render("Queue a track to start")
	}

	offset := int(m.elapsed / marqueeStep)
	title := styles.BoldGradient(render.Marquee(t.Title, width, offset), styles.T().Primary, styles.T().SpectrumLow)

	artist := render.Truncate(t.Artist, width-4)
	line := s.Artist.Render(artist)
	if m.library != nil && m.library.IsLiked(t.ID) {
		line += " " + s.Liked.Render("♥")
	}
	return title + "\n" + line
}

func (m Model) spectrumView(width int) string {
	if m.lyrics.visible {
		return m.lyrics.view(m.snap, width, spectrumHeight)
	}
	t := styles.T()
	var levels []float64
	if m.levels != nil {
		levels = resample(m.levels, width)
	} else {
		levels = idleLevels(width, m.phase)
	}
	return renderBars(levels, spectrumHeight, t.SpectrumLow, t.SpectrumHigh)
}

func (m Model) queueView(width int) string {
	s := styles.T().S()
	tracks := m.svc.Queue().Tracks()
	if len(tracks) == 0 {
		return ""
	}
	lines := []string{s.Muted.Render(fmt.Sprintf("Up next (%d)", len(tracks)))}
	for i, t := range tracks[:min(len(tracks), maxUpNext)] {
		lines = append(lines, s.Base.Render(render.Truncate(fmt.Sprintf("%d. %s", i+1, trackLine(t)), width)))
	}
	if extra := len(tracks) - maxUpNext; extra > 0 {
		lines = append(lines, s.Subtle.Render(fmt.Sprintf("   +%d more", extra)))
	}
	return strings.Join(lines, "\n")
}

func trackLine(t playlist.Track) string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Title + " · " + t.Artist
}

// stateLabel describes the transport, e.g. "playing · embed".
func stateLabel(snap playback.Snapshot) string {
	label := strings.ToLower(snap.State.String())
	if snap.Backend != player.KindNone {
		label += " · " + snap.Backend.String()
	}
	return label
}
