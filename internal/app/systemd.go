package app

import (
	"github.com/coreos/go-systemd/v22/daemon"

	logx "pronote2telegram/pkg/logx"
)

// sdNotify reports state to systemd when running as a Type=notify unit. It
// is a no-op elsewhere.
func sdNotify(log logx.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	switch {
	case err != nil:
		log.Warn("systemd notify failed", logx.String("state", state), logx.Err(err))
	case sent:
		log.Debug("systemd notified", logx.String("state", state))
	}
}
