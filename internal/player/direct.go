package player

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/drift/internal/playlist"
)

// DirectBackend plays directly addressable media (local files, http URLs)
// through a single analysis graph created on first use and kept until
// Close. Position updates come from the graph itself.
type DirectBackend struct {
	mu     sync.Mutex
	out    Output
	client *http.Client
	rate   beep.SampleRate
	graph  *graph
	loaded bool
	volume int
}

// DirectOption configures a DirectBackend.
type DirectOption func(*DirectBackend)

// WithHTTPClient sets the client used to fetch remote media.
func WithHTTPClient(c *http.Client) DirectOption {
	return func(b *DirectBackend) { b.client = c }
}

// WithSampleRate sets the output sample rate.
func WithSampleRate(rate beep.SampleRate) DirectOption {
	return func(b *DirectBackend) { b.rate = rate }
}

// NewDirect creates a direct backend playing into out.
func NewDirect(out Output, opts ...DirectOption) *DirectBackend {
	b := &DirectBackend{
		out:    out,
		rate:   DefaultSampleRate,
		volume: 100,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *DirectBackend) Kind() Kind { return KindDirect }

// ensureGraph builds the analysis graph on first use. Caller holds b.mu.
func (b *DirectBackend) ensureGraph() *graph {
	if b.graph == nil {
		b.graph = newGraph(b.out, b.rate)
		b.graph.setVolume(b.volume)
	}
	return b.graph
}

func (b *DirectBackend) Load(ctx context.Context, track playlist.Track) error {
	b.mu.Lock()
	g := b.ensureGraph()
	if b.loaded {
		g.detach()
		b.loaded = false
	}
	b.mu.Unlock()

	rsc, hint, err := openSource(ctx, b.client, track.Source)
	if err != nil {
		return fmt.Errorf("open %s: %w", track.Source, err)
	}
	stream, format, err := decode(rsc, hint)
	if err != nil {
		return fmt.Errorf("decode %s: %w", track.Source, err)
	}
	if err := ctx.Err(); err != nil {
		_ = stream.Close()
		return err
	}

	src := &source{stream: stream, format: format, play: stream}
	if format.SampleRate != b.rate {
		src.play = beep.Resample(4, format.SampleRate, b.rate, stream)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	g.attach(src)
	g.setVolume(b.volume)
	b.loaded = true
	return nil
}

// Play starts the output on first use. An output that cannot start is
// reported as ErrPlaybackRefused and leaves the track loaded and paused.
func (b *DirectBackend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded {
		return nil
	}
	if err := b.graph.start(); err != nil {
		return errors.Join(ErrPlaybackRefused, err)
	}
	b.graph.setPaused(false)
	return nil
}

func (b *DirectBackend) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		b.graph.setPaused(true)
	}
}

func (b *DirectBackend) Seek(position time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		_ = b.graph.seek(position)
	}
}

func (b *DirectBackend) SetVolume(level int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = clampLevel(level)
	if b.graph != nil {
		b.graph.setVolume(b.volume)
	}
}

func (b *DirectBackend) Position() time.Duration {
	b.mu.Lock()
	g := b.graph
	b.mu.Unlock()
	if g == nil {
		return 0
	}
	return g.position()
}

func (b *DirectBackend) Duration() time.Duration {
	b.mu.Lock()
	g := b.graph
	b.mu.Unlock()
	if g == nil {
		return 0
	}
	return g.duration()
}

// Watch forwards the graph's time updates and end signal.
func (b *DirectBackend) Watch(l Listener) func() {
	b.mu.Lock()
	g := b.ensureGraph()
	b.mu.Unlock()

	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		for {
			select {
			case <-done:
				return
			case pos := <-g.times:
				if l.OnTime != nil {
					l.OnTime(pos, g.duration())
				}
			case <-g.ended:
				if l.OnEnded != nil {
					l.OnEnded()
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}

// Samples returns the most recent n output samples (mono) for analysis,
// or nil before the graph exists.
func (b *DirectBackend) Samples(n int) []float64 {
	b.mu.Lock()
	g := b.graph
	b.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.tap.Samples(n)
}

// SampleRate returns the output sample rate.
func (b *DirectBackend) SampleRate() int {
	return int(b.rate)
}

// Teardown pauses and detaches the current source. The graph stays alive.
func (b *DirectBackend) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.graph != nil {
		b.graph.detach()
	}
	b.loaded = false
}

// HasGraph reports whether the analysis graph has been built.
func (b *DirectBackend) HasGraph() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.graph != nil
}

// Close releases the analysis graph and the output.
func (b *DirectBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.graph != nil {
		b.graph.close()
		b.graph = nil
	}
	b.loaded = false
	return nil
}

var _ Backend = (*DirectBackend)(nil)
