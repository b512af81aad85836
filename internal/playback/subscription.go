package playback

import "time"

// eventBufferSize is per channel. A subscriber that falls further behind
// loses the newest events, never blocks the service.
const eventBufferSize = 16

// Subscription is one subscriber's view of service events. Done closes
// when the service shuts down.
type Subscription struct {
	StateChanged    <-chan StateChange
	TrackChanged    <-chan TrackChange
	PositionChanged <-chan PositionChange
	VolumeChanged   <-chan VolumeChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	state    chan StateChange
	track    chan TrackChange
	position chan PositionChange
	volume   chan VolumeChange
	errs     chan ErrorEvent
	done     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		state:    make(chan StateChange, eventBufferSize),
		track:    make(chan TrackChange, eventBufferSize),
		position: make(chan PositionChange, eventBufferSize),
		volume:   make(chan VolumeChange, eventBufferSize),
		errs:     make(chan ErrorEvent, eventBufferSize),
		done:     make(chan struct{}),
	}
	s.StateChanged, s.TrackChanged, s.PositionChanged = s.state, s.track, s.position
	s.VolumeChanged, s.Error, s.Done = s.volume, s.errs, s.done
	return s
}

// offer delivers v unless ch is full.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func (s *Subscription) close() { close(s.done) }

func (s *Subscription) sendState(e StateChange) { offer(s.state, e) }

func (s *Subscription) sendTrack(e TrackChange) { offer(s.track, e) }

func (s *Subscription) sendPosition(pos, dur time.Duration) {
	offer(s.position, PositionChange{Position: pos, Duration: dur})
}

func (s *Subscription) sendVolume(level int) { offer(s.volume, VolumeChange{Volume: level}) }

func (s *Subscription) sendError(e ErrorEvent) { offer(s.errs, e) }
