//go:build !linux

package notify

// New returns Nop: desktop notifications need the freedesktop bus.
func New() (Notifier, error) {
	return Nop{}, nil
}
