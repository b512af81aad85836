package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/drift/internal/analyzer"
	"github.com/llehouerou/drift/internal/errmsg"
	"github.com/llehouerou/drift/internal/player"
	"github.com/llehouerou/drift/internal/playlist"
)

// ErrClosed is returned by operations on a closed service.
var ErrClosed = errors.New("playback service closed")

// PrevRestartThreshold is the position past which PlayPrev restarts the
// current track instead of going back.
const PrevRestartThreshold = 3 * time.Second

// Config wires the service's collaborators.
type Config struct {
	// Backends by kind; at most one per kind.
	Backends []player.Backend
	Queue    *playlist.Queue
	History  *playlist.History
	// Resolver is consulted when the queue is empty. Optional.
	Resolver Resolver
	// Frames publishes analysis frames from the direct backend. Optional.
	Frames *analyzer.Loop
	// Volume is the initial level, 0-100.
	Volume int
	Logger zerolog.Logger
}

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	// mu guards the transport fields below. switchMu serializes track
	// switches; it is always taken before mu, never while holding it.
	mu       sync.RWMutex
	switchMu sync.Mutex

	backends map[player.Kind]player.Backend
	queue    *playlist.Queue
	history  *playlist.History
	resolver Resolver
	frames   *analyzer.Loop
	logger   zerolog.Logger

	state    State
	current  *playlist.Track
	active   player.Backend
	loaded   bool
	position time.Duration
	duration time.Duration
	volume   int

	// gen increments on every track switch; callbacks and resolutions
	// carry the generation they were started for.
	gen           uint64
	stopFeed      func()
	cancelLoad    context.CancelFunc
	cancelResolve context.CancelFunc
	framesOK      atomic.Bool

	subs   []*Subscription
	subsMu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup
	closed bool
}

// New creates a new playback service.
func New(cfg Config) Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &serviceImpl{
		backends: make(map[player.Kind]player.Backend, len(cfg.Backends)),
		queue:    cfg.Queue,
		history:  cfg.History,
		resolver: cfg.Resolver,
		frames:   cfg.Frames,
		logger:   cfg.Logger,
		volume:   max(0, min(100, cfg.Volume)),
		ctx:      ctx,
		cancel:   cancel,
	}
	if s.queue == nil {
		s.queue = playlist.NewQueue()
	}
	if s.history == nil {
		s.history = playlist.NewHistory(playlist.DefaultHistorySize)
	}
	for _, b := range cfg.Backends {
		s.backends[b.Kind()] = b
	}
	return s
}

// PlayTrack makes track current and starts it on the backend its source
// needs. A load failure leaves the track current and the state Paused.
func (s *serviceImpl) PlayTrack(ctx context.Context, track playlist.Track) error {
	return s.play(ctx, track, nil)
}

// play switches to track. With a non-nil expect the switch happens only if
// no other switch happened since generation *expect.
func (s *serviceImpl) play(ctx context.Context, track playlist.Track, expect *uint64) error {
	b, ok := s.backends[player.KindFor(track.Source)]
	if !ok {
		return fmt.Errorf("%w: %q", player.ErrUnsupportedSource, track.Source)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if expect != nil && s.gen != *expect {
		s.mu.Unlock()
		return nil
	}
	s.cancelPendingLocked()
	s.gen++
	gen := s.gen
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancelLoad = cancel
	defer cancel()

	prev := s.current
	t := track
	s.current = &t
	s.loaded = false
	s.position = 0
	s.duration = track.Duration
	s.framesOK.Store(false)
	s.setStateLocked(StateLoading)
	s.emitTrackLocked(prev, &t, b.Kind())
	s.emitPositionLocked()
	s.mu.Unlock()

	s.history.Record(track)

	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	if !s.isCurrent(gen) {
		return nil
	}

	s.mu.Lock()
	stop := s.stopFeed
	s.stopFeed = nil
	prevBackend := s.active
	s.mu.Unlock()

	// Order matters: nothing from the previous track may reach the new one.
	if stop != nil {
		stop()
	}
	if s.frames != nil {
		s.frames.Stop()
	}
	if prevBackend != nil && prevBackend != b {
		prevBackend.Teardown()
	}

	s.mu.Lock()
	s.active = b
	volume := s.volume
	s.mu.Unlock()
	b.SetVolume(volume)

	err := b.Load(loadCtx, track)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil
	}
	if err != nil {
		s.setStateLocked(StatePaused)
		s.emitErrorLocked(errmsg.OpPlaybackLoad, &t, err)
		s.logger.Warn().Err(err).Str("track", track.Seed()).Str("source", track.Source).Msg("load failed")
		return fmt.Errorf("load %s: %w", track.Seed(), err)
	}
	s.loaded = true
	if d := b.Duration(); d > 0 {
		s.duration = d
	}
	s.stopFeed = b.Watch(s.listener(gen))

	if err := b.Play(); err != nil {
		s.setStateLocked(StatePaused)
		s.emitErrorLocked(errmsg.OpPlaybackStart, &t, err)
		s.logger.Warn().Err(err).Str("track", track.Seed()).Msg("playback refused")
		s.emitPositionLocked()
		return nil
	}
	s.resumeLocked()
	s.emitPositionLocked()
	return nil
}

// listener routes backend notifications for generation gen.
func (s *serviceImpl) listener(gen uint64) player.Listener {
	return player.Listener{
		OnTime: func(position, duration time.Duration) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.gen != gen || !s.state.IsActive() {
				return
			}
			s.position = position
			if duration > 0 {
				s.duration = duration
			}
			s.emitPositionLocked()
		},
		OnEnded: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.gen != gen || s.state != StatePlaying || s.closed {
				return
			}
			s.haltFramesLocked()
			s.position = s.duration
			s.setStateLocked(StateEnded)
			current := *s.current
			s.tasks.Add(1)
			go func() {
				defer s.tasks.Done()
				s.next(s.ctx, gen, current, true)
			}()
		},
	}
}

// next plays the head of the queue, falling back to autoplay.
func (s *serviceImpl) next(ctx context.Context, gen uint64, current playlist.Track, ended bool) {
	if !s.isCurrent(gen) {
		return
	}
	if track, ok := s.queue.DequeueNext(); ok {
		if err := s.play(ctx, track, &gen); err != nil {
			s.logger.Debug().Err(err).Msg("next track failed")
		}
		return
	}
	s.autoplay(ctx, gen, current, ended)
}

// autoplay asks the resolver for a follow-up to current. The result is
// dropped if the track changed meanwhile.
func (s *serviceImpl) autoplay(ctx context.Context, gen uint64, current playlist.Track, ended bool) {
	if s.resolver == nil {
		s.exhausted(gen, current, ended)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	if s.cancelResolve != nil {
		s.cancelResolve()
	}
	s.cancelResolve = cancel
	s.mu.Unlock()

	track, ok := s.resolver.Resolve(ctx, current)
	if ctx.Err() != nil || !s.isCurrent(gen) {
		s.logger.Debug().Str("after", current.Seed()).Msg("autoplay result discarded")
		return
	}
	if !ok {
		s.exhausted(gen, current, ended)
		return
	}
	s.logger.Info().Str("after", current.Seed()).Str("next", track.Seed()).Msg("autoplay")
	if err := s.play(s.ctx, track, &gen); err != nil {
		s.logger.Debug().Err(err).Msg("autoplay track failed")
	}
}

// exhausted handles "nothing to play next". After a track ended the
// transport goes Idle; a manual skip leaves the current track playing.
func (s *serviceImpl) exhausted(gen uint64, current playlist.Track, ended bool) {
	s.logger.Info().Str("after", current.Seed()).Msg("no next track")
	if !ended {
		return
	}

	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	if s.gen != gen || s.state != StateEnded {
		s.mu.Unlock()
		return
	}
	s.gen++
	prev := s.current
	s.current = nil
	s.loaded = false
	s.position = 0
	s.duration = 0
	stop := s.stopFeed
	s.stopFeed = nil
	active := s.active
	s.active = nil
	s.setStateLocked(StateIdle)
	s.emitTrackLocked(prev, nil, player.KindNone)
	s.emitPositionLocked()
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if active != nil {
		active.Teardown()
	}
}

// TogglePlay pauses or resumes. On a track whose load failed it retries
// the load.
func (s *serviceImpl) TogglePlay() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	switch s.state {
	case StatePlaying:
		s.active.Pause()
		s.haltFramesLocked()
		s.setStateLocked(StatePaused)
	case StatePaused:
		if !s.loaded {
			track := *s.current
			s.mu.Unlock()
			return s.PlayTrack(s.ctx, track)
		}
		if err := s.active.Play(); err != nil {
			s.emitErrorLocked(errmsg.OpPlaybackStart, s.current, err)
			s.logger.Warn().Err(err).Msg("playback refused")
			break
		}
		s.resumeLocked()
	case StateIdle, StateLoading, StateEnded:
		// Nothing to toggle
	}
	s.mu.Unlock()
	return nil
}

// SeekTo moves to position clamped to [0, duration].
func (s *serviceImpl) SeekTo(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.state.IsActive() || !s.loaded {
		return nil
	}
	position = max(position, 0)
	if s.duration > 0 {
		position = min(position, s.duration)
	}
	s.position = position
	s.active.Seek(position)
	s.emitPositionLocked()
	return nil
}

// SetVolume stores level and applies it to the active backend. The stored
// value is applied to every backend as it is engaged.
func (s *serviceImpl) SetVolume(level int) {
	level = max(0, min(100, level))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = level
	if s.active != nil {
		s.active.SetVolume(level)
	}
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendVolume(level)
	}
	s.subsMu.RUnlock()
}

// PlayNext plays the head of the queue. With an empty queue it starts
// autoplay resolution in the background and returns immediately.
func (s *serviceImpl) PlayNext(ctx context.Context) error {
	if track, ok := s.queue.DequeueNext(); ok {
		return s.PlayTrack(ctx, track)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.current == nil {
		return nil
	}
	gen := s.gen
	current := *s.current
	ended := s.state == StateEnded
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		s.autoplay(s.ctx, gen, current, ended)
	}()
	return nil
}

// PlayPrev restarts the current track if it is past PrevRestartThreshold,
// otherwise plays the most recent other track from history.
func (s *serviceImpl) PlayPrev(ctx context.Context) error {
	s.mu.RLock()
	current := s.current
	position := s.position
	s.mu.RUnlock()
	if current == nil {
		return nil
	}
	if position <= PrevRestartThreshold {
		if prev, ok := s.history.Before(current.ID); ok {
			return s.PlayTrack(ctx, prev)
		}
	}
	return s.SeekTo(0)
}

// resumeLocked enters Playing and starts the frame loop when the direct
// backend is active.
func (s *serviceImpl) resumeLocked() {
	s.setStateLocked(StatePlaying)
	if s.frames != nil && s.active != nil && s.active.Kind() == player.KindDirect {
		s.framesOK.Store(true)
		s.frames.Start(s.framesOK.Load)
	}
}

func (s *serviceImpl) haltFramesLocked() {
	s.framesOK.Store(false)
	if s.frames != nil {
		s.frames.Stop()
	}
}

func (s *serviceImpl) cancelPendingLocked() {
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
	if s.cancelResolve != nil {
		s.cancelResolve()
		s.cancelResolve = nil
	}
}

func (s *serviceImpl) isCurrent(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen == gen
}

// State returns the current transport state.
func (s *serviceImpl) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *serviceImpl) IsPlaying() bool {
	return s.State() == StatePlaying
}

func (s *serviceImpl) Position() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

func (s *serviceImpl) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration
}

func (s *serviceImpl) Volume() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// CurrentTrack returns a copy of the current track, or nil if none.
func (s *serviceImpl) CurrentTrack() *playlist.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	t := *s.current
	return &t
}

func (s *serviceImpl) ActiveBackend() player.Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return player.KindNone
	}
	return s.active.Kind()
}

func (s *serviceImpl) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		State:    s.state,
		Position: s.position,
		Duration: s.duration,
		Volume:   s.volume,
		Backend:  player.KindNone,
	}
	if s.current != nil {
		t := *s.current
		snap.Track = &t
	}
	if s.active != nil {
		snap.Backend = s.active.Kind()
	}
	return snap
}

func (s *serviceImpl) Frequency() []uint8 {
	if s.frames == nil {
		return nil
	}
	return s.frames.Snapshot()
}

func (s *serviceImpl) Queue() *playlist.Queue { return s.queue }

func (s *serviceImpl) History() *playlist.History { return s.history }

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

func (s *serviceImpl) setStateLocked(next State) {
	prev := s.state
	if prev == next {
		return
	}
	s.state = next
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendState(StateChange{Previous: prev, Current: next})
	}
}

func (s *serviceImpl) emitTrackLocked(prev, current *playlist.Track, kind player.Kind) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendTrack(TrackChange{Previous: prev, Current: current, Backend: kind})
	}
}

func (s *serviceImpl) emitPositionLocked() {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendPosition(s.position, s.duration)
	}
}

func (s *serviceImpl) emitErrorLocked(op errmsg.Op, track *playlist.Track, err error) {
	var t *playlist.Track
	if track != nil {
		c := *track
		t = &c
	}
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendError(ErrorEvent{Op: op, Track: t, Err: err})
	}
}

// Close stops playback, waits for background work and releases the
// backends, including the direct backend's analysis graph.
func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancel()
	s.cancelPendingLocked()
	s.gen++
	stop := s.stopFeed
	s.stopFeed = nil
	s.haltFramesLocked()
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	s.tasks.Wait()

	// In-flight switches observe closed or a stale generation and return.
	s.switchMu.Lock()
	var errs []error
	for _, b := range s.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.switchMu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	return errors.Join(errs...)
}
