//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpPlaybackLoad,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpPlaybackLoad,
			err:      errors.New("connection refused"),
			expected: "Failed to load track: connection refused",
		},
		{
			name:     "playback start",
			op:       OpPlaybackStart,
			err:      errors.New("no audio device"),
			expected: "Failed to start playback: no audio device",
		},
		{
			name:     "store save",
			op:       OpStoreSave,
			err:      errors.New("timeout"),
			expected: "Failed to save user data: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpPlaybackLoad,
			context:  "Daft Punk - Digital Love",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpPlaybackLoad,
			context:  "Daft Punk - Digital Love",
			err:      errors.New("HTTP 404"),
			expected: "Failed to load track 'Daft Punk - Digital Love': HTTP 404",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpSearch,
			context:  "",
			err:      errors.New("quota exceeded"),
			expected: "Failed to search tracks: quota exceeded",
		},
		{
			name:     "playlist add track with context",
			op:       OpPlaylistAddTrack,
			context:  "Road Trip",
			err:      errors.New("playlist not found"),
			expected: "Failed to add track to playlist 'Road Trip': playlist not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	ops := []Op{
		OpPlaybackLoad, OpPlaybackStart, OpPlaybackSeek,
		OpAutoplaySuggest, OpAutoplaySearch, OpMoodSuggest,
		OpSearch, OpTrending, OpFileLoad, OpLyrics,
		OpPlaylistCreate, OpPlaylistRename, OpPlaylistDelete,
		OpPlaylistAddTrack, OpPlaylistRemove, OpPlaylistCover,
		OpLikeToggle, OpQueueEdit,
		OpStoreLoad, OpStoreSave, OpStoreWatch,
		OpInitialize,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}
			expected := "Failed to " + string(op) + ": test error"
			if result := Format(op, testErr); result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
