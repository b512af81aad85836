// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playback operations
	OpPlaybackLoad  Op = "load track"
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"

	// Autoplay
	OpAutoplaySuggest Op = "suggest next track"
	OpAutoplaySearch  Op = "find suggested track"
	OpMoodSuggest     Op = "suggest songs for mood"

	// Catalog
	OpSearch   Op = "search tracks"
	OpTrending Op = "fetch trending music"
	OpFileLoad Op = "load file"
	OpLyrics   Op = "fetch lyrics"

	// Library
	OpPlaylistCreate   Op = "create playlist"
	OpPlaylistRename   Op = "rename playlist"
	OpPlaylistDelete   Op = "delete playlist"
	OpPlaylistAddTrack Op = "add track to playlist"
	OpPlaylistRemove   Op = "remove track from playlist"
	OpPlaylistCover    Op = "generate playlist cover"
	OpLikeToggle       Op = "update liked songs"
	OpQueueEdit        Op = "update queue"

	// Persistence
	OpStoreLoad  Op = "load user data"
	OpStoreSave  Op = "save user data"
	OpStoreWatch Op = "watch user data"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
