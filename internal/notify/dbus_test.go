//go:build linux

package notify

import (
	"os"
	"testing"
)

func TestHints(t *testing.T) {
	h := hints(Notification{Urgency: UrgencyCritical})
	if got := h["urgency"].Value(); got != byte(UrgencyCritical) {
		t.Errorf("urgency hint = %v, want %d", got, UrgencyCritical)
	}
	if got := h["desktop-entry"].Value(); got != desktopName {
		t.Errorf("desktop-entry hint = %v, want %q", got, desktopName)
	}
	if _, ok := h["transient"]; ok {
		t.Error("transient hint set for a persistent notification")
	}

	if got := hints(Notification{Transient: true})["transient"].Value(); got != true {
		t.Errorf("transient hint = %v, want true", got)
	}
}

func TestBusNotifier_ReplacesInPlace(t *testing.T) {
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no D-Bus session available")
	}
	n, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := n.(*busNotifier); !ok {
		t.Skip("session bus unreachable")
	}

	first, err := n.Notify(Notification{Title: "drift test", Timeout: 1000, Transient: true})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if first == 0 {
		t.Fatal("Notify() id = 0, want a daemon id")
	}
	second, err := n.Notify(Notification{Title: "drift test 2", Timeout: 1000, ReplacesID: first})
	if err != nil {
		t.Fatalf("Notify() replace error = %v", err)
	}
	if second != first {
		t.Errorf("replacing id = %d, want %d", second, first)
	}
	if err := n.Close(second); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
