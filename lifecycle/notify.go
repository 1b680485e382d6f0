package lifecycle

import (
	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier tells a supervising process manager about readiness changes.
type Notifier interface {
	Ready() error
	Stopping() error
}

// SystemdNotifier speaks the sd_notify protocol over NOTIFY_SOCKET.
// Without a socket every call is a no-op.
type SystemdNotifier struct{}

func (SystemdNotifier) Ready() error {
	_, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	return err
}

func (SystemdNotifier) Stopping() error {
	_, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	return err
}

type nopNotifier struct{}

func (nopNotifier) Ready() error    { return nil }
func (nopNotifier) Stopping() error { return nil }
