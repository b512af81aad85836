package playback

// State represents the transport state machine.
//
// Valid transitions:
//   - Idle    → Loading (via PlayTrack)
//   - Loading → Playing (backend loaded and started)
//   - Loading → Paused  (load failed or playback refused; track stays current)
//   - Playing ↔ Paused  (via TogglePlay)
//   - Playing → Ended   (backend end signal)
//   - Ended   → Loading (next track found in the queue or by autoplay)
//   - Ended   → Idle    (nothing to play next)
//
// Any state moves to Loading on PlayTrack. Ended is transient: it holds
// while the next track is resolved and the ended track stays current.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateEnded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

// HasTrack returns true if a current track exists in this state.
func (s State) HasTrack() bool {
	return s != StateIdle
}

// IsActive returns true if a track is loaded (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}
