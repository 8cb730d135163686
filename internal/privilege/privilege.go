// Package privilege reports the effective privilege level of the running
// server. Listing works unprivileged but sees less (command lines and
// memory maps of other users' processes are often unreadable), and
// terminating other users' processes needs root or an elevated token.
package privilege

import (
	"os/user"
)

// Level describes the privilege state for logs and doctor output.
type Level struct {
	Elevated bool   `json:"elevated"`
	Username string `json:"username"`
}

// Current returns the privilege level of this process.
func Current() Level {
	lvl := Level{Elevated: IsElevated()}
	if u, err := user.Current(); err == nil {
		lvl.Username = u.Username
	}
	return lvl
}
