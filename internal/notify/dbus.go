//go:build linux

package notify

import (
	"github.com/godbus/dbus/v5"
)

const (
	busName     = "org.freedesktop.Notifications"
	busPath     = dbus.ObjectPath("/org/freedesktop/Notifications")
	appName     = "Drift"
	desktopName = "drift"
)

type busNotifier struct {
	obj dbus.BusObject
}

// New connects to the session bus notification daemon. Without a session
// bus it returns Nop, so callers never need to special-case headless runs.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return Nop{}, nil //nolint:nilerr // no session bus means no notifications
	}
	return &busNotifier{obj: conn.Object(busName, busPath)}, nil
}

func (b *busNotifier) Notify(n Notification) (uint32, error) {
	call := b.obj.Call(busName+".Notify", 0,
		appName, n.ReplacesID, n.Icon, n.Title, n.Body,
		[]string{}, hints(n), n.Timeout)
	if call.Err != nil {
		return 0, call.Err
	}
	var id uint32
	err := call.Store(&id)
	return id, err
}

func (b *busNotifier) Close(id uint32) error {
	return b.obj.Call(busName+".CloseNotification", 0, id).Err
}

func hints(n Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(n.Urgency)),
		"desktop-entry": dbus.MakeVariant(desktopName),
	}
	if n.Transient {
		h["transient"] = dbus.MakeVariant(true)
	}
	return h
}
