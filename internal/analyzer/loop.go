package analyzer

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFPS is the frame rate of the publishing loop.
const DefaultFPS = 60

// Source supplies the most recent output samples.
type Source interface {
	Samples(n int) []float64
}

// Loop republishes an analysis snapshot once per frame while its guard
// holds. The published snapshot is nil whenever the loop is not running.
type Loop struct {
	src      Source
	analyser *Analyser
	interval time.Duration

	snapshot atomic.Pointer[[]uint8]
	frames   atomic.Int64

	mu  sync.Mutex
	run *run
}

type run struct {
	stop   chan struct{}
	exited chan struct{}
}

// NewLoop creates a stopped loop.
func NewLoop(src Source, analyser *Analyser, fps int) *Loop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Loop{
		src:      src,
		analyser: analyser,
		interval: time.Second / time.Duration(fps),
	}
}

// Interval returns the frame period.
func (l *Loop) Interval() time.Duration { return l.interval }

// Start begins publishing. active is checked before every frame; the loop
// cancels itself the first time it returns false. Start on a running loop
// is a no-op.
func (l *Loop) Start(active func() bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.run != nil {
		return
	}
	r := &run{stop: make(chan struct{}), exited: make(chan struct{})}
	l.run = r
	l.analyser.Reset()
	go l.loop(r, active)
}

func (l *Loop) loop(r *run, active func() bool) {
	defer close(r.exited)
	defer func() {
		l.mu.Lock()
		if l.run == r {
			l.run = nil
			l.snapshot.Store(nil)
		}
		l.mu.Unlock()
	}()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		}
		if !active() {
			return
		}
		snap := l.analyser.Analyse(l.src.Samples(l.analyser.Size()))
		select {
		case <-r.stop:
			return
		default:
		}
		l.snapshot.Store(&snap)
		l.frames.Add(1)
	}
}

// Stop cancels the loop and clears the snapshot before returning.
func (l *Loop) Stop() {
	l.mu.Lock()
	r := l.run
	l.run = nil
	l.snapshot.Store(nil)
	l.mu.Unlock()

	if r == nil {
		return
	}
	close(r.stop)
	<-r.exited
	// The loop may have stored one last frame before seeing stop.
	l.snapshot.Store(nil)
}

// Running reports whether a frame is scheduled.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.run != nil
}

// Snapshot returns the latest frame, or nil when the loop is inactive.
func (l *Loop) Snapshot() []uint8 {
	p := l.snapshot.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Frames returns the number of frames published so far.
func (l *Loop) Frames() int64 {
	return l.frames.Load()
}
