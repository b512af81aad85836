// Package nowplaying is the terminal player screen: current track,
// spectrum, transport and the upcoming queue.
package nowplaying

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/drift/internal/lyrics"
	"github.com/llehouerou/drift/internal/playback"
	"github.com/llehouerou/drift/internal/playlists"
)

const (
	seekStep    = 5 * time.Second
	volumeStep  = 5
	statusTTL   = 4 * time.Second
	marqueeStep = 300 * time.Millisecond
	idleSpeed   = 0.25 // wave cycles per second
)

type (
	frameMsg  time.Time
	errorMsg  playback.ErrorEvent
	actionMsg struct{ err error }
	closedMsg struct{}
)

// Model is the bubbletea model of the player screen.
type Model struct {
	ctx     context.Context
	svc     playback.Service
	library *playlists.Library
	sub     *playback.Subscription

	keys  KeyMap
	help  help.Model
	frame time.Duration
	start func(context.Context) error

	snap     playback.Snapshot
	levels   []uint8
	phase    float64
	elapsed  time.Duration
	status   string
	isError  bool
	statusAt time.Duration

	finder lyrics.Finder
	lyrics lyricsPane

	width, height int
}

// Options tune the player screen.
type Options struct {
	// FPS is the spectrum refresh rate. Defaults to 30.
	FPS int
	// Start runs once the screen is up, typically to begin playback, so
	// its failure shows on the status line.
	Start func(context.Context) error
	// Lyrics enables the lyrics pane. Nil hides it.
	Lyrics lyrics.Finder
}

// New builds the model.
func New(ctx context.Context, svc playback.Service, library *playlists.Library, opts Options) Model {
	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}
	return Model{
		start:   opts.Start,
		finder:  opts.Lyrics,
		ctx:     ctx,
		svc:     svc,
		library: library,
		sub:     svc.Subscribe(),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		frame:   time.Second / time.Duration(fps),
		snap:    svc.Snapshot(),
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick(), waitError(m.sub)}
	if m.start != nil {
		cmds = append(cmds, m.async(m.start))
	}
	return tea.Batch(cmds...)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// waitError blocks on the next playback error until the service closes.
func waitError(sub *playback.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-sub.Error:
			return errorMsg(e)
		case <-sub.Done:
			return closedMsg{}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case frameMsg:
		m.advance(m.frame)
		fetch := m.fetchLyrics()
		return m, tea.Batch(m.tick(), fetch)

	case lyricsMsg:
		m.lyrics.receive(msg)
		return m, nil

	case errorMsg:
		m.setStatus(playback.ErrorEvent(msg).Message(), true)
		return m, waitError(m.sub)

	case actionMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		}
		m.snap = m.svc.Snapshot()
		return m, nil

	case closedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// advance refreshes the snapshot and spectrum by one frame.
func (m *Model) advance(d time.Duration) {
	m.elapsed += d
	m.snap = m.svc.Snapshot()
	m.levels = m.svc.Frequency()
	m.phase += d.Seconds() * idleSpeed
	if m.status != "" && m.elapsed-m.statusAt >= statusTTL {
		m.status = ""
	}
}

func (m *Model) setStatus(text string, isError bool) {
	m.status = text
	m.isError = isError
	m.statusAt = m.elapsed
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		if err := m.svc.TogglePlay(); err != nil {
			m.setStatus(err.Error(), true)
		}
		m.snap = m.svc.Snapshot()

	case key.Matches(msg, m.keys.Next):
		return m, m.async(m.svc.PlayNext)

	case key.Matches(msg, m.keys.Prev):
		return m, m.async(m.svc.PlayPrev)

	case key.Matches(msg, m.keys.SeekBack):
		m.seek(-seekStep)

	case key.Matches(msg, m.keys.SeekFwd):
		m.seek(seekStep)

	case key.Matches(msg, m.keys.VolumeUp):
		m.svc.SetVolume(m.svc.Volume() + volumeStep)
		m.snap = m.svc.Snapshot()

	case key.Matches(msg, m.keys.VolumeDown):
		m.svc.SetVolume(m.svc.Volume() - volumeStep)
		m.snap = m.svc.Snapshot()

	case key.Matches(msg, m.keys.Like):
		m.toggleLike()

	case key.Matches(msg, m.keys.Lyrics):
		if m.finder == nil {
			m.setStatus("Lyrics are unavailable", true)
			return m, nil
		}
		m.lyrics.visible = !m.lyrics.visible
		fetch := m.fetchLyrics()
		return m, fetch

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// async runs a transport call that may load or resolve a track off the
// update loop.
func (m Model) async(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{err: fn(ctx)}
	}
}

func (m *Model) seek(delta time.Duration) {
	if !m.svc.State().IsActive() {
		return
	}
	target := max(m.svc.Position()+delta, 0)
	if d := m.svc.Duration(); d > 0 {
		target = min(target, d)
	}
	if err := m.svc.SeekTo(target); err != nil {
		m.setStatus(err.Error(), true)
	}
	m.snap = m.svc.Snapshot()
}

func (m *Model) toggleLike() {
	current := m.svc.CurrentTrack()
	if m.library == nil || current == nil {
		return
	}
	if m.library.ToggleLike(*current) {
		m.setStatus("Added to liked songs", false)
	} else {
		m.setStatus("Removed from liked songs", false)
	}
}

// Run shows the player screen until the user quits.
func Run(ctx context.Context, svc playback.Service, library *playlists.Library, opts Options) error {
	p := tea.NewProgram(New(ctx, svc, library, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
