// Package svcinstall wires genesisd into the host's init system via
// github.com/takama/daemon, the domain-stack dependency the pack
// carries for exactly this purpose (a cross-platform systemd/upstart/
// launchd/Windows service installer) but never instantiates itself.
package svcinstall

import "github.com/takama/daemon"

const (
	name        = "genesisd"
	description = "Genesis RTK base/rover supervisor"
)

// Manage installs, removes, starts, or stops the genesisd service and
// returns the daemon package's human-readable result string. action
// must be one of "install", "remove", "start", "stop", "status".
func Manage(action string, args []string) (string, error) {
	d, err := daemon.New(name, description, daemon.SystemDaemon)
	if err != nil {
		return "", err
	}

	switch action {
	case "install":
		return d.Install(args...)
	case "remove":
		return d.Remove()
	case "start":
		return d.Start()
	case "stop":
		return d.Stop()
	case "status":
		return d.Status()
	default:
		return "", errUnknownAction(action)
	}
}

type errUnknownAction string

func (e errUnknownAction) Error() string {
	return "svcinstall: unknown action " + string(e)
}
