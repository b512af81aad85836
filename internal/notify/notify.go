// Package notify posts desktop notifications when the track changes.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/llehouerou/drift/internal/playback"
	"github.com/llehouerou/drift/internal/playlist"
)

// trackTimeout is how long a track notification stays up, in ms.
const trackTimeout = 5000

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency
	// Transient notifications skip the daemon's history.
	Transient bool
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(Notification) (uint32, error) { return 0, nil }

func (Nop) Close(uint32) error { return nil }

// Announcer shows the current track, replacing its previous notification
// so only one is ever on screen.
type Announcer struct {
	notifier Notifier
	logger   zerolog.Logger
	last     uint32
}

// NewAnnouncer creates an announcer posting through n.
func NewAnnouncer(n Notifier, logger zerolog.Logger) *Announcer {
	return &Announcer{notifier: n, logger: logger}
}

// Run announces every track change until ctx is done or the subscription
// closes. The last notification is closed on return.
func (a *Announcer) Run(ctx context.Context, sub *playback.Subscription) {
	defer a.clear()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			if e.Current == nil {
				a.clear()
				continue
			}
			a.announce(*e.Current)
		}
	}
}

func (a *Announcer) announce(t playlist.Track) {
	id, err := a.notifier.Notify(trackNotification(t, a.last))
	if err != nil {
		a.logger.Debug().Err(err).Str("track", t.Seed()).Msg("notification failed")
		return
	}
	a.last = id
}

func (a *Announcer) clear() {
	if a.last == 0 {
		return
	}
	if err := a.notifier.Close(a.last); err != nil {
		a.logger.Debug().Err(err).Msg("close notification")
	}
	a.last = 0
}

func trackNotification(t playlist.Track, replaces uint32) Notification {
	return Notification{
		Title:      t.Title,
		Body:       t.Artist,
		Icon:       trackIcon(t),
		Timeout:    trackTimeout,
		ReplacesID: replaces,
		Urgency:    UrgencyLow,
		Transient:  true,
	}
}
