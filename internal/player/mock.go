package player

import (
	"context"
	"sync"
	"time"

	"github.com/llehouerou/drift/internal/playlist"
)

// Mock is a test double for Backend. Notifications are delivered only
// through the Emit/SimulateEnded helpers, and only while watched.
type Mock struct {
	mu        sync.Mutex
	kind      Kind
	loaded    *playlist.Track
	playing   bool
	live      bool
	position  time.Duration
	duration  time.Duration
	volume    int
	loadErr   error
	playErr   error
	loadGate  chan struct{}
	listener  *Listener
	watches   int
	loadCalls []playlist.Track
	seekCalls []time.Duration
	volumes   []int
	teardowns int
	closed    bool
}

// NewMock creates a mock backend reporting kind.
func NewMock(kind Kind) *Mock {
	return &Mock{kind: kind, volume: 100}
}

func (m *Mock) Kind() Kind { return m.kind }

func (m *Mock) Load(ctx context.Context, track playlist.Track) error {
	m.mu.Lock()
	m.loadCalls = append(m.loadCalls, track)
	gate := m.loadGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.position = 0
	if m.loadErr != nil {
		m.loaded = nil
		m.live = false
		return m.loadErr
	}
	t := track
	m.loaded = &t
	m.live = true
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	if m.loaded != nil {
		m.playing = true
	}
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

func (m *Mock) Seek(position time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, position)
	m.position = position
}

func (m *Mock) SetVolume(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clampLevel(level)
	m.volumes = append(m.volumes, m.volume)
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) Watch(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = &l
	m.watches++
	watched := m.listener
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.listener == watched {
			m.listener = nil
		}
	}
}

func (m *Mock) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardowns++
	m.loaded = nil
	m.playing = false
	m.live = false
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.live = false
	return nil
}

// Test helpers

func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// HoldLoads makes Load block until the returned release function is called
// or its context is cancelled.
func (m *Mock) HoldLoads() (release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate := make(chan struct{})
	m.loadGate = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			close(gate)
			m.mu.Lock()
			if m.loadGate == gate {
				m.loadGate = nil
			}
			m.mu.Unlock()
		})
	}
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

// Emit delivers a time update to the current watcher.
// Returns false if nothing is watching.
func (m *Mock) Emit(position time.Duration) bool {
	m.mu.Lock()
	m.position = position
	l := m.listener
	d := m.duration
	m.mu.Unlock()
	if l == nil || l.OnTime == nil {
		return false
	}
	l.OnTime(position, d)
	return true
}

// SimulateEnded delivers the end signal to the current watcher.
// Returns false if nothing is watching.
func (m *Mock) SimulateEnded() bool {
	m.mu.Lock()
	l := m.listener
	m.playing = false
	m.mu.Unlock()
	if l == nil || l.OnEnded == nil {
		return false
	}
	l.OnEnded()
	return true
}

func (m *Mock) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) Watched() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listener != nil
}

func (m *Mock) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) LoadCalls() []playlist.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]playlist.Track(nil), m.loadCalls...)
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *Mock) Teardowns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teardowns
}

func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Backend at compile time.
var _ Backend = (*Mock)(nil)

// FakeRemote is an in-memory Remote for exercising EmbedBackend.
type FakeRemote struct {
	mu       sync.Mutex
	loaded   string
	playing  bool
	position time.Duration
	duration time.Duration
	volume   int
	playErr  error
	loadErr  error
	ended    chan struct{}
	closed   bool
	polls    int
}

func NewFakeRemote() *FakeRemote {
	return &FakeRemote{ended: make(chan struct{}, 1)}
}

func (r *FakeRemote) Load(_ context.Context, videoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return r.loadErr
	}
	r.loaded = videoID
	r.position = 0
	r.playing = false
	return nil
}

func (r *FakeRemote) Play() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playErr != nil {
		return r.playErr
	}
	r.playing = true
	return nil
}

func (r *FakeRemote) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
	return nil
}

func (r *FakeRemote) Seek(position time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = position
	return nil
}

func (r *FakeRemote) SetVolume(level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = level
	return nil
}

func (r *FakeRemote) Position() (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls++
	return r.position, nil
}

func (r *FakeRemote) Duration() (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration, nil
}

func (r *FakeRemote) Ended() <-chan struct{} { return r.ended }

func (r *FakeRemote) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = ""
	r.playing = false
	r.position = 0
	return nil
}

func (r *FakeRemote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *FakeRemote) SetPlayError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playErr = err
}

func (r *FakeRemote) SetLoadError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadErr = err
}

func (r *FakeRemote) SetPosition(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = d
}

func (r *FakeRemote) SetDuration(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duration = d
}

func (r *FakeRemote) SimulateEnded() { notify(r.ended) }

func (r *FakeRemote) Loaded() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

func (r *FakeRemote) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

func (r *FakeRemote) Volume() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

func (r *FakeRemote) Polls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.polls
}

func (r *FakeRemote) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

var _ Remote = (*FakeRemote)(nil)
