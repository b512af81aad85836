package player

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

const (
	// DefaultSampleRate is the output rate; sources are resampled to it.
	DefaultSampleRate = beep.SampleRate(44100)
	// TimeUpdateInterval is the spacing of position notifications.
	TimeUpdateInterval = 250 * time.Millisecond
	// TapSize is the analysis ring buffer length in samples.
	TapSize = 8192
)

// source is one decoded track attached to the graph.
type source struct {
	stream beep.StreamSeekCloser
	format beep.Format
	play   beep.Streamer // stream, resampled to the graph rate if needed
}

// graph is the long-lived pipeline
//
//	feeder -> ctrl (pause) -> volume -> tap (analysis) -> output
//
// It is built once and survives track changes: only the feeder's source
// is swapped. The feeder never ends, it emits silence when no source is
// attached, so the output keeps a single streamer for its whole life.
// Every field below started is guarded by the output lock.
type graph struct {
	out     Output
	rate    beep.SampleRate
	started bool

	src         *source
	finished    bool
	sinceNotify int

	ctrl   *beep.Ctrl
	volume *effects.Volume
	tap    *Tap

	ended chan struct{}
	times chan time.Duration
}

func newGraph(out Output, rate beep.SampleRate) *graph {
	g := &graph{
		out:   out,
		rate:  rate,
		ended: make(chan struct{}, 1),
		times: make(chan time.Duration, 1),
	}
	g.ctrl = &beep.Ctrl{Streamer: feeder{g}, Paused: true}
	g.volume = &effects.Volume{Streamer: g.ctrl, Base: 2}
	g.tap = NewTap(g.volume, TapSize)
	return g
}

// start attaches the pipeline to the output on first use.
// Must not be called with the output lock held.
func (g *graph) start() error {
	if g.started {
		return nil
	}
	if err := g.out.Init(g.rate, g.rate.N(time.Second/10)); err != nil {
		return err
	}
	g.out.Play(g.tap)
	g.started = true
	return nil
}

// attach swaps in a new source, closing the previous one, and pauses.
func (g *graph) attach(s *source) {
	g.out.Lock()
	prev := g.src
	g.src = s
	g.finished = false
	g.sinceNotify = 0
	g.ctrl.Paused = true
	g.out.Unlock()

	if prev != nil {
		_ = prev.stream.Close()
	}
	drain(g.ended)
	drainTimes(g.times)
	g.tap.Reset()
}

func (g *graph) detach() {
	g.attach(nil)
}

func (g *graph) setPaused(paused bool) {
	g.out.Lock()
	g.ctrl.Paused = paused
	g.out.Unlock()
}

func (g *graph) setVolume(level int) {
	vol, silent := levelToVolume(level)
	g.out.Lock()
	g.volume.Volume = vol
	g.volume.Silent = silent
	g.out.Unlock()
}

func (g *graph) position() time.Duration {
	g.out.Lock()
	defer g.out.Unlock()
	return g.positionLocked()
}

func (g *graph) positionLocked() time.Duration {
	if g.src == nil {
		return 0
	}
	return g.src.format.SampleRate.D(g.src.stream.Position())
}

func (g *graph) duration() time.Duration {
	g.out.Lock()
	defer g.out.Unlock()
	return g.durationLocked()
}

func (g *graph) durationLocked() time.Duration {
	if g.src == nil {
		return 0
	}
	return g.src.format.SampleRate.D(g.src.stream.Len())
}

// seek moves the source to position, clamped to the track bounds.
func (g *graph) seek(position time.Duration) error {
	g.out.Lock()
	defer g.out.Unlock()
	if g.src == nil {
		return nil
	}
	n := g.src.format.SampleRate.N(position)
	n = max(0, min(n, g.src.stream.Len()))
	if err := g.src.stream.Seek(n); err != nil {
		return err
	}
	g.finished = false
	g.sinceNotify = 0
	return nil
}

// feed runs on the audio thread with the output lock held.
func (g *graph) feed(samples [][2]float64) {
	if g.src == nil || g.finished {
		clear(samples)
		return
	}

	n, ok := g.src.play.Stream(samples)
	clear(samples[n:])
	if !ok || n < len(samples) {
		g.finished = true
		notify(g.ended)
	}

	g.sinceNotify += n
	if g.finished || g.sinceNotify >= g.rate.N(TimeUpdateInterval) {
		g.sinceNotify = 0
		pos := g.positionLocked()
		drainTimes(g.times)
		select {
		case g.times <- pos:
		default:
		}
	}
}

// feeder adapts graph.feed to beep.Streamer.
type feeder struct{ g *graph }

func (f feeder) Stream(samples [][2]float64) (int, bool) {
	f.g.feed(samples)
	return len(samples), true
}

func (f feeder) Err() error { return nil }

// close detaches the source and shuts the output down.
func (g *graph) close() {
	g.detach()
	if g.started {
		g.out.Close()
		g.started = false
	}
}

// notify sends a signal without blocking.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func drainTimes(ch chan time.Duration) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
