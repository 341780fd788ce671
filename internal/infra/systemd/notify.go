// Package systemd reports service state to systemd when the bot runs as a
// Type=notify unit. Outside systemd every call is a no-op.
package systemd

import (
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/sirupsen/logrus"
)

type Notifier struct {
	logger *logrus.Entry
	notify func(unsetEnvironment bool, state string) (bool, error)
}

func NewNotifier(logger *logrus.Entry) *Notifier {
	return &Notifier{logger: logger, notify: daemon.SdNotify}
}

// Ready tells systemd that startup is complete.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Watchdog pings the systemd watchdog; called once per poll cycle.
func (n *Notifier) Watchdog() {
	n.send(daemon.SdNotifyWatchdog)
}

func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(false, state)
	if err != nil {
		n.logger.WithError(err).WithField("state", state).Warn("Failed to notify systemd")
		return
	}
	if sent {
		n.logger.WithField("state", state).Debug("systemd notified")
	}
}
