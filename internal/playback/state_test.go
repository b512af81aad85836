package playback

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateLoading, "Loading"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{StateEnded, "Ended"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_IsActive(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateIdle, false},
		{StateLoading, false},
		{StatePlaying, true},
		{StatePaused, true},
		{StateEnded, false},
	}
	for _, tt := range tests {
		if got := tt.state.IsActive(); got != tt.want {
			t.Errorf("%v.IsActive() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestState_HasTrack(t *testing.T) {
	if StateIdle.HasTrack() {
		t.Error("Idle should have no track")
	}
	for _, s := range []State{StateLoading, StatePlaying, StatePaused, StateEnded} {
		if !s.HasTrack() {
			t.Errorf("%v should have a track", s)
		}
	}
}
